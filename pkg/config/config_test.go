package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validClickPesa() ClickPesaConfig {
	return ClickPesaConfig{
		BaseURL:    "https://api.clickpesa.com/third-parties",
		ClientID:   "IDOIDxxxxxxxxxxxxxxxxxxxxxx",
		APIKey:     "SKxxxxxxxxxxxxxxxxxxxxxxxxx",
		AuthMethod: AuthMethodAPIKey,
	}
}

func TestClickPesaConfig_Validate(t *testing.T) {
	c := validClickPesa()
	require.NoError(t, c.Validate())
}

func TestClickPesaConfig_RejectsPlaceholders(t *testing.T) {
	c := validClickPesa()
	c.ClientID = "your_client_id_here"
	require.Error(t, c.Validate())

	c = validClickPesa()
	c.APIKey = "your_actual_api_key_from_dashboard"
	require.Error(t, c.Validate())
}

func TestClickPesaConfig_RejectsPlainHTTP(t *testing.T) {
	c := validClickPesa()
	c.BaseURL = "http://api.clickpesa.com/third-parties"
	require.Error(t, c.Validate())
}

func TestClickPesaConfig_RejectsUnknownAuthMethod(t *testing.T) {
	c := validClickPesa()
	c.AuthMethod = "mtls"
	require.Error(t, c.Validate())
}

func TestClickPesaConfig_DefaultTimeout(t *testing.T) {
	c := validClickPesa()
	require.Equal(t, int64(30), int64(c.Timeout().Seconds()))
	c.TimeoutSeconds = 10
	require.Equal(t, int64(10), int64(c.Timeout().Seconds()))
}
