package ensureserviceuser

// Result is the access key of the upload user. SecretAccessKey is nil when
// the key already existed.
type Result struct {
	SecretAccessKey *string `json:"SecretAccessKey,omitempty"`
	AccessKeyId     string  `json:"AccessKeyId"`
}

// OutputSuccess wraps a Result on stdout
type OutputSuccess struct {
	Data Result `json:"data"`
}

// OutputError is written on stdout when provisioning fails
type OutputError struct {
	Error string `json:"error"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource string   `json:"Resource"`
}
