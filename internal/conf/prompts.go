package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt configurations loaded from YAML
type PromptsConfig struct {
	Agent AgentPrompts `yaml:"agent"`
}

// AgentPrompts contains the agent prompts
type AgentPrompts struct {
	SystemPrompt   string `yaml:"system_prompt"`
	DigestTemplate string `yaml:"digest_template"`
}

// LoadPromptsConfig loads prompts configuration from YAML file
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"./configs/prompts.yaml",
			"/etc/linkedin-agent-bridge/prompts.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
		// Add path relative to working directory
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, "configs", "prompts.yaml"))
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
		// Return default config if no file found
		fmt.Println("[Config] No prompts.yaml found, using defaults")
		return DefaultPromptsConfig(), nil
	}

	fmt.Printf("[Config] Loading prompts from: %s\n", loadedPath)

	var config PromptsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts.yaml: %w", err)
	}

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *PromptsConfig) fillDefaults() {
	defaults := DefaultPromptsConfig()

	if c.Agent.SystemPrompt == "" {
		c.Agent.SystemPrompt = defaults.Agent.SystemPrompt
	}
	if c.Agent.DigestTemplate == "" {
		c.Agent.DigestTemplate = defaults.Agent.DigestTemplate
	}
}

// FormatDigest formats the unread-digest prompt with the conversation list
func (c *PromptsConfig) FormatDigest(conversations string) string {
	return strings.ReplaceAll(c.Agent.DigestTemplate, "{{conversations}}", conversations)
}

// DefaultPromptsConfig returns the default prompts configuration
func DefaultPromptsConfig() *PromptsConfig {
	return &PromptsConfig{
		Agent: AgentPrompts{
			SystemPrompt: `You are a LinkedIn messaging assistant. You operate the account holder's LinkedIn inbox through tools and everything you output is **shown directly to the account holder**.

## Most Important Rules
1. **Output content directly** without meta-descriptions (no "Here's what I found:", "I'll check that for you:")
2. Never invent conversations, names, or message text. Only report what the tools returned
3. Messages you send through tools are sent as the account holder. Keep them short and professional, and only send what the account holder asked for
4. If a tool reports the session is not logged in, tell the account holder to log in through the live browser view and stop there

## Tools
- list_conversations: fetch the inbox. Always call this before entering a conversation; its results are what enter_conversation matches against
- enter_conversation: open a thread by exact participant name (or by the conversation_id from list_conversations)
- read_full_conversation: read the messages of the thread that is currently open
- send_message: send a reply into a conversation by its conversation_id
- start_new_conversation: start a brand-new thread with a connection
- check_login_status: report whether a LinkedIn session is active
- sign_out: end the session and wipe local state. Only on explicit request

## Common Scenarios
- "Any new messages?" -> list_conversations, report the unread ones
- "What did X say?" -> list_conversations, enter_conversation with X's name, read_full_conversation
- "Reply to X that ..." -> enter the conversation, read it for context, send_message
- Multiple people share the requested name -> list the matches and ask which one; never guess

## Notes
- Conversation names and previews are truncated for display; match names exactly as list_conversations returned them
- Prefer concise responses`,
			DigestTemplate: `These conversations have new unread messages:

{{conversations}}

Write a short digest for the account holder: who wrote, and what it looks like they want. Do not open or answer anything.`,
		},
	}
}
