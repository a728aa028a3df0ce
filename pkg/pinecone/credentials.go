package pinecone

// Credentials identify an account: the API key sent with every request and
// the environment that selects the controller host. The zero value is empty;
// use NewCredentials. Credentials are copied by value into every handle and
// never change after construction.
type Credentials struct {
	apiKey      string
	environment string
}

// NewCredentials creates credentials for the given API key and environment.
func NewCredentials(apiKey, environment string) Credentials {
	return Credentials{apiKey: apiKey, environment: environment}
}

// APIKey returns the API key.
func (c Credentials) APIKey() string {
	return c.apiKey
}

// Environment returns the environment identifier, e.g. "us-west1-gcp".
func (c Credentials) Environment() string {
	return c.environment
}

// Validate reports missing fields.
func (c Credentials) Validate() error {
	if c.apiKey == "" {
		return ErrAPIKeyRequired
	}

	if c.environment == "" {
		return ErrEnvironmentRequired
	}

	return nil
}

// String masks the API key so credentials are safe to log.
func (c Credentials) String() string {
	return "Credentials{environment: " + c.environment + ", apiKey: ***}"
}
