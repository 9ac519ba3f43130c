package loggen

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the CSV rendering of LogRecord.Timestamp
const TimestampLayout = time.DateTime

// CSVHeader lists the output columns in order
//
//nolint:gochecknoglobals // fixed file contract
var CSVHeader = []string{
	"timestamp",
	"user_id",
	"session_id",
	"url",
	"ip_address",
	"user_agent",
	"response_time_ms",
	"http_status",
	"referrer_url",
}

// LogRecord represents one simulated HTTP access event.
// The ch tags map the struct onto the ClickHouse export table.
type LogRecord struct {
	Timestamp      time.Time `ch:"timestamp"`
	SessionID      uuid.UUID `ch:"session_id"`
	URL            string    `ch:"url"`
	IPAddress      string    `ch:"ip_address"`
	UserAgent      string    `ch:"user_agent"`
	ReferrerURL    string    `ch:"referrer_url"`
	UserID         uint32    `ch:"user_id"`
	ResponseTimeMs uint32    `ch:"response_time_ms"`
	HttpStatus     uint16    `ch:"http_status"`
}

// CSVFields renders the record in CSVHeader order
func (r *LogRecord) CSVFields() []string {
	return r.appendCSVFields(make([]string, 0, len(CSVHeader)))
}

func (r *LogRecord) appendCSVFields(dst []string) []string {
	return append(dst,
		r.Timestamp.UTC().Format(TimestampLayout),
		strconv.FormatUint(uint64(r.UserID), 10),
		r.SessionID.String(),
		r.URL,
		r.IPAddress,
		r.UserAgent,
		strconv.FormatUint(uint64(r.ResponseTimeMs), 10),
		strconv.FormatUint(uint64(r.HttpStatus), 10),
		r.ReferrerURL,
	)
}
