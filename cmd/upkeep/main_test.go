package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fairhaven/upkeep/internal/config"
)

func configNotify(slackToken, slackChannel, discordToken, discordChannel string) config.NotifyConfig {
	return config.NotifyConfig{
		SlackToken:     slackToken,
		SlackChannel:   slackChannel,
		DiscordToken:   discordToken,
		DiscordChannel: discordChannel,
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "upkeep dev") {
		t.Errorf("expected output to contain 'upkeep dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "upkeep 1.0.0") {
		t.Errorf("expected output to contain 'upkeep 1.0.0', got: %s", out)
	}
	if !strings.Contains(out, "commit: abc123") {
		t.Errorf("expected output to contain 'commit: abc123', got: %s", out)
	}
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	want := []string{"version", "migrate", "serve", "monitor", "sweep"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestBuildChannels_SkipsPartialConfig(t *testing.T) {
	channels := buildChannels(configNotify("", "", "", ""))
	if len(channels) != 0 {
		t.Errorf("channels = %d, want 0 with empty config", len(channels))
	}

	// Token without a channel is skipped, not fatal.
	channels = buildChannels(configNotify("xoxb-test", "", "", ""))
	if len(channels) != 0 {
		t.Errorf("channels = %d, want 0 for partial slack config", len(channels))
	}

	channels = buildChannels(configNotify("xoxb-test", "C123", "", ""))
	if len(channels) != 1 {
		t.Errorf("channels = %d, want 1 for complete slack config", len(channels))
	}
}
