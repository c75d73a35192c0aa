package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SelectorsConfig carries selector-chain overrides loaded from YAML.
// Every list is an ordered fallback chain tried first-to-last; an empty
// list keeps the built-in chain compiled into the LinkedIn client, so a
// markup change can be patched in config without a rebuild.
type SelectorsConfig struct {
	List    ListSelectors    `yaml:"list"`
	Thread  ThreadSelectors  `yaml:"thread"`
	Compose ComposeSelectors `yaml:"compose"`
	Auth    AuthSelectors    `yaml:"auth"`
}

// ListSelectors overrides the conversation-list chains
type ListSelectors struct {
	Container     []string `yaml:"container"`
	Conversations []string `yaml:"conversations"`
	Cards         []string `yaml:"cards"`
	Name          []string `yaml:"name"`
	Unread        []string `yaml:"unread"`
	Timestamp     []string `yaml:"timestamp"`
	Snippet       []string `yaml:"snippet"`
	Pending       []string `yaml:"pending"`
}

// ThreadSelectors overrides the open-thread chains
type ThreadSelectors struct {
	URLPattern  string   `yaml:"url_pattern"`
	Items       []string `yaml:"items"`
	Divider     []string `yaml:"divider"`
	Body        []string `yaml:"body"`
	Clock       []string `yaml:"clock"`
	Sender      []string `yaml:"sender"`
	OtherMarker []string `yaml:"other_marker"`
}

// ComposeSelectors overrides the message-composition chains
type ComposeSelectors struct {
	Editor     []string `yaml:"editor"`
	SendButton []string `yaml:"send_button"`
	NewButton  []string `yaml:"new_button"`
	Typeahead  []string `yaml:"typeahead"`
	Result     []string `yaml:"result"`
}

// AuthSelectors overrides the login-detection chains
type AuthSelectors struct {
	Nav         []string `yaml:"nav"`
	GuestSignIn []string `yaml:"guest_sign_in"`
	AccountName []string `yaml:"account_name"`
}

// LoadSelectorsConfig loads selector overrides from a YAML file.
// Missing file is not an error: built-in chains apply.
func LoadSelectorsConfig(configPath string) (*SelectorsConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/selectors.yaml",
			"./configs/selectors.yaml",
			"/etc/linkedin-agent-bridge/selectors.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "selectors.yaml"))
		}
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, "configs", "selectors.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		fmt.Println("[Config] No selectors.yaml found, using built-in selector chains")
		return &SelectorsConfig{}, nil
	}

	fmt.Printf("[Config] Loading selector overrides from: %s\n", loadedPath)

	var config SelectorsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse selectors.yaml: %w", err)
	}

	return &config, nil
}
