package settings

import (
	"strings"

	"github.com/pkg/errors"
)

// Model identifies a chat completion model. Only models listed in
// SupportedModels can be used.
type Model string

const (
	ModelGPT4oMini  Model = "gpt-4o-mini"
	ModelGPT35Turbo Model = "gpt-3.5-turbo"
)

// DefaultModel is preselected in every new session.
const DefaultModel = ModelGPT4oMini

// SupportedModels is the allow-list shown in the model selector, in display
// order.
var SupportedModels = []Model{
	ModelGPT4oMini,
	ModelGPT35Turbo,
}

var modelDescriptions = map[Model]string{
	ModelGPT4oMini:  "generally smarter and faster",
	ModelGPT35Turbo: "more cost-effective",
}

var ErrUnsupportedModel = errors.New("unsupported model")

func ParseModel(s string) (Model, error) {
	m := Model(strings.TrimSpace(s))
	if !m.IsSupported() {
		return "", errors.Wrapf(ErrUnsupportedModel, "%q (supported: %s)", s, strings.Join(SupportedModelNames(), ", "))
	}
	return m, nil
}

func (m Model) IsSupported() bool {
	for _, s := range SupportedModels {
		if s == m {
			return true
		}
	}
	return false
}

func (m Model) Description() string {
	return modelDescriptions[m]
}

func (m Model) String() string {
	return string(m)
}

// Next returns the model following m in the allow-list, wrapping around.
func (m Model) Next() Model {
	for i, s := range SupportedModels {
		if s == m {
			return SupportedModels[(i+1)%len(SupportedModels)]
		}
	}
	return DefaultModel
}

func SupportedModelNames() []string {
	ret := make([]string, len(SupportedModels))
	for i, m := range SupportedModels {
		ret[i] = string(m)
	}
	return ret
}
