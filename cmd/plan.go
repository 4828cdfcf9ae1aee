package cmd

// testPlan models the YAML test plan consumed by run and verify: report
// metadata, optional endpoint defaults, and the ordered steps.
type testPlan struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Endpoint    planEndpoint `yaml:"endpoint,omitempty"`
	Steps       []planStep   `yaml:"steps"`
}

// planEndpoint supplies connection details when they are not given via
// flags, environment or config file. Those take precedence.
type planEndpoint struct {
	Name string `yaml:"name,omitempty"`
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
	User string `yaml:"user,omitempty"`
}

const (
	actionSend    = "send"
	actionReceive = "receive"
)
