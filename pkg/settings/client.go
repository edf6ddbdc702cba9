package settings

import (
	"net/http"
	"time"

	"github.com/go-go-golems/tachat/pkg/security"
	"github.com/huandu/go-clone"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// ClientSettings configure the HTTP side of the completion client.
type ClientSettings struct {
	BaseURL      string        `yaml:"base_url,omitempty" mapstructure:"openai-base-url"`
	Organization string        `yaml:"organization,omitempty" mapstructure:"openai-organization"`
	Timeout      time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`

	// AllowInsecureBaseURL accepts http and local network base URLs.
	AllowInsecureBaseURL bool `yaml:"allow_insecure_base_url,omitempty" mapstructure:"allow-insecure-base-url"`

	// HTTPClient overrides the client built from Timeout, mostly for tests.
	HTTPClient *http.Client `yaml:"-" json:"-" mapstructure:"-"`
}

func NewClientSettings() *ClientSettings {
	return &ClientSettings{
		BaseURL: DefaultOpenAIBaseURL,
		Timeout: 60 * time.Second,
	}
}

func (cs *ClientSettings) Clone() *ClientSettings {
	// the http client is shared, not copied
	shallow := *cs
	shallow.HTTPClient = nil
	ret := clone.Clone(&shallow).(*ClientSettings)
	ret.HTTPClient = cs.HTTPClient
	return ret
}

func (cs *ClientSettings) GetHTTPClient() *http.Client {
	if cs.HTTPClient != nil {
		return cs.HTTPClient
	}
	return &http.Client{Timeout: cs.Timeout}
}

func (cs *ClientSettings) Validate() error {
	if cs.BaseURL == "" {
		return nil
	}
	return security.ValidateBaseURL(cs.BaseURL, security.BaseURLPolicy{
		AllowInsecure: cs.AllowInsecureBaseURL,
	})
}
