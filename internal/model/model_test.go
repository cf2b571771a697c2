package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtaskValidate(t *testing.T) {
	valid := Subtask{
		Question:     "ship it?",
		Type:         SubtaskTypeMultipleChoice,
		Options:      []string{"yes", "no"},
		ProvidedFile: FileNone,
	}
	assert.NoError(t, valid.Validate())

	noOptions := valid
	noOptions.Options = nil
	assert.Error(t, noOptions.Validate())

	openWithOptions := Subtask{
		Question:     "thoughts?",
		Type:         SubtaskTypeOpenAnswer,
		Options:      []string{"stray"},
		ProvidedFile: FileNone,
	}
	assert.Error(t, openWithOptions.Validate())

	missingRef := Subtask{
		Question:     "review the attachment",
		Type:         SubtaskTypeOpenAnswer,
		ProvidedFile: FileEmailed,
	}
	assert.Error(t, missingRef.Validate())

	withRef := missingRef
	withRef.FileReference = "<msg-1@example.com>"
	assert.NoError(t, withRef.Validate())
}

func TestSubtaskHasOption(t *testing.T) {
	s := Subtask{Options: []string{"yes", "no"}}
	assert.True(t, s.HasOption("yes"))
	assert.False(t, s.HasOption("maybe"))
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada L.", User{Username: "ada", FullName: "Ada L."}.DisplayName())
	assert.Equal(t, "ada", User{Username: "ada"}.DisplayName())
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := &AppConfig{
		Server: ServerConfig{BaseURL: "https://tracker.example.com", Username: "ada"},
		Cache:  CacheConfig{Path: "/tmp/taskdeck.db"},
		Sync:   SyncConfig{PollIntervalSec: 60},
		Attachments: AttachmentConfig{
			Dir: "/tmp/attachments",
			Mailbox: MailboxConfig{
				Host: "imap.example.com", Port: "993",
				Username: "ada@example.com", Mailbox: "INBOX", TLS: true,
			},
		},
	}

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, cfg.Cache, loaded.Cache)
	assert.Equal(t, cfg.Sync, loaded.Sync)
	assert.Equal(t, cfg.Attachments, loaded.Attachments)
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Sync.PollIntervalSec)
	assert.Equal(t, "INBOX", cfg.Attachments.Mailbox.Mailbox)
}
