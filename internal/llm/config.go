// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Provider selection with precedence: CLI > ENV > config file > auto

package llm

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// Settings is one layer of provider settings (file, env or CLI)
type Settings struct {
	Provider string
	Model    string
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// ProviderSelectionInfo contains details about how a provider was selected
type ProviderSelectionInfo struct {
	Provider   ProviderType
	Source     string // "cli", "env", "config", "auto"
	AutoReason string
}

// EnvSettings reads the UTG_LLM_* variables
func EnvSettings() Settings {
	s := Settings{
		Provider: os.Getenv("UTG_LLM_PROVIDER"),
		Model:    os.Getenv("UTG_LLM_MODEL"),
		Endpoint: os.Getenv("UTG_LLM_ENDPOINT"),
		Token:    os.Getenv("UTG_LLM_TOKEN"),
	}
	if v := os.Getenv("UTG_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			s.Timeout = d
		}
	}
	return s
}

// ResolveProviderConfig merges the file and CLI layers with the environment.
// An unset provider is auto-selected from the available API keys.
func ResolveProviderConfig(file, cli Settings, verbose bool) (*ProviderConfig, *ProviderSelectionInfo) {
	config := &ProviderConfig{
		Timeout: DefaultTimeout,
		Verbose: verbose,
	}
	info := &ProviderSelectionInfo{}

	for _, layer := range []struct {
		source   string
		settings Settings
	}{
		{"config", file},
		{"env", EnvSettings()},
		{"cli", cli},
	} {
		s := layer.settings
		if s.Provider != "" {
			config.Type = ProviderType(strings.ToLower(s.Provider))
			info.Source = layer.source
		}
		if s.Model != "" {
			config.Model = s.Model
		}
		if s.Endpoint != "" {
			config.Endpoint = s.Endpoint
		}
		if s.Token != "" {
			config.Token = s.Token
		}
		if s.Timeout > 0 {
			config.Timeout = s.Timeout
		}
	}

	if config.Type == "" {
		config.Type, info.AutoReason = autoSelectProvider()
		info.Source = "auto"
	}
	info.Provider = config.Type

	return config.WithDefaults(), info
}

// autoSelectProvider chooses the best available provider
// Priority: anthropic > openai > gemini > mistral > ollama > mock
func autoSelectProvider() (ProviderType, string) {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return ProviderAnthropic, "ANTHROPIC_API_KEY found"
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI, "OPENAI_API_KEY found"
	}
	if os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != "" {
		return ProviderGemini, "GEMINI_API_KEY found"
	}
	if os.Getenv("MISTRAL_API_KEY") != "" {
		return ProviderMistral, "MISTRAL_API_KEY found"
	}
	if IsOllamaAvailable() {
		return ProviderOllama, "local Ollama instance detected"
	}
	return ProviderMock, "no API keys found, using offline mode"
}

// DescribeSelection returns a human-readable description of provider selection
func DescribeSelection(info *ProviderSelectionInfo) string {
	switch info.Source {
	case "cli":
		return "specified via --llm-provider flag"
	case "env":
		return "specified via UTG_LLM_PROVIDER environment variable"
	case "config":
		return "specified in config file"
	case "auto":
		if info.AutoReason != "" {
			return "auto-selected: " + info.AutoReason
		}
		return "auto-selected based on available API keys"
	default:
		return "default"
	}
}

// GetProviderToken returns the appropriate token for a provider type
func GetProviderToken(providerType ProviderType, configToken string) string {
	if configToken != "" {
		return configToken
	}

	switch providerType {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case ProviderMistral:
		return os.Getenv("MISTRAL_API_KEY")
	case ProviderOllama, ProviderMock:
		return ""
	default:
		return os.Getenv("UTG_LLM_TOKEN")
	}
}

// OllamaBaseURL returns the Ollama server URL from OLLAMA_HOST or the default
func OllamaBaseURL() string {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		return "http://localhost:11434"
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/")
}

// IsOllamaAvailable checks if Ollama is running locally
func IsOllamaAvailable() bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(OllamaBaseURL() + "/api/tags")
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
