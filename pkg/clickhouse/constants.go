package clickhouse

// DatabaseName is the default ClickHouse database for exported datasets
const DatabaseName = "weblogs"

// TableWebLogs is the MergeTree table receiving generated access log records
const TableWebLogs = "web_logs"
