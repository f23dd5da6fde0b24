package configs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bosocmputer/account_statement_ai/internal/common"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OCR_LANGUAGES", "")
	t.Setenv("OCR_DPI", "not-a-number")
	LoadConfig()

	assert.Equal(t, "gemini", LLM_PROVIDER)
	assert.Equal(t, []string{"eng", "nld"}, OCR_LANGUAGES)
	assert.Equal(t, 150, OCR_DPI)
	assert.Equal(t, 3, LLM_MAX_ATTEMPTS)
	assert.Equal(t, 0.7, INVOICE_CASH_RATIO)
	assert.True(t, ENABLE_IMAGE_PREPROCESSING)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OCR_LANGUAGES", "eng+tha,deu")
	t.Setenv("LLM_TEMPERATURE", "0.3")
	t.Setenv("ENABLE_IMAGE_PREPROCESSING", "false")
	t.Setenv("BILL_CASH_RATIO", "0.5")
	LoadConfig()

	assert.Equal(t, "openai", LLM_PROVIDER)
	assert.Equal(t, []string{"eng", "tha", "deu"}, OCR_LANGUAGES)
	assert.Equal(t, 0.3, LLM_TEMPERATURE)
	assert.False(t, ENABLE_IMAGE_PREPROCESSING)
	assert.Equal(t, 0.5, BILL_CASH_RATIO)
}

func TestValidate(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("LLM_MAX_ATTEMPTS", "")
	LoadConfig()

	err := Validate()
	var cfgErr *common.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Setting)

	t.Setenv("GEMINI_API_KEY", "key")
	LoadConfig()
	assert.NoError(t, Validate())

	t.Setenv("LLM_PROVIDER", "llama")
	LoadConfig()
	assert.ErrorContains(t, Validate(), "unsupported provider")

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MAX_ATTEMPTS", "0")
	LoadConfig()
	err = Validate()
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "LLM_MAX_ATTEMPTS", cfgErr.Setting)
}

func TestTextractEnabled(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	LoadConfig()
	assert.False(t, TextractEnabled())

	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	LoadConfig()
	assert.True(t, TextractEnabled())
}
