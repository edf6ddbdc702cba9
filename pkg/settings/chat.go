package settings

import (
	"github.com/huandu/go-clone"
)

const DefaultPersona = "You are a friendly teaching assistant for an Embedded AI & Robotics lab. " +
	"Explain things simply for first-year data science students. " +
	"Keep your answers concise and highly practical, focusing on Arduino, sensors, and microcontrollers."

// ChatSettings are the per-session knobs the user can change while chatting.
type ChatSettings struct {
	Persona string `yaml:"persona" json:"persona" mapstructure:"persona"`
	Model   Model  `yaml:"model" json:"model" mapstructure:"model"`
	Stream  bool   `yaml:"stream" json:"stream" mapstructure:"stream"`
}

func NewChatSettings() *ChatSettings {
	return &ChatSettings{
		Persona: DefaultPersona,
		Model:   DefaultModel,
		Stream:  true,
	}
}

// NewMinimalChatSettings returns the fixed settings of the minimal assistant,
// which offers no settings surface at all.
func NewMinimalChatSettings() *ChatSettings {
	return &ChatSettings{
		Persona: DefaultPersona,
		Model:   ModelGPT35Turbo,
		Stream:  true,
	}
}

func (s *ChatSettings) Clone() *ChatSettings {
	return clone.Clone(s).(*ChatSettings)
}

func (s *ChatSettings) Validate() error {
	_, err := ParseModel(string(s.Model))
	return err
}
