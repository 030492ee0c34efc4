package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		err := newApp().Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestAIConfigFromFlags(t *testing.T) {
	var captured error
	app := &cli.App{
		Name:  "test",
		Flags: aiFlags(),
		Action: func(c *cli.Context) error {
			config, err := aiConfigFromFlags(c)
			captured = err
			if err != nil {
				return err
			}
			assert.Equal(t, "http://localhost:11434/v1", config.EmbeddingHost)
			assert.Equal(t, "nomic-embed-text", config.EmbeddingModel)
			assert.Equal(t, 768, config.EmbeddingDimensions)
			return nil
		},
	}

	err := app.Run([]string{
		"test",
		"--embedding-host", "http://localhost:11434",
		"--embedding-model", "nomic-embed-text",
		"--embedding-dims", "768",
	})
	require.NoError(t, err)
	require.NoError(t, captured)
}

func TestIngestCommandRejectsBadDomain(t *testing.T) {
	app := &cli.App{
		Name: "test",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{Name: "db", Required: true},
					&cli.StringFlag{Name: "file", Required: true},
					&cli.StringFlag{Name: "domain", Required: true},
					&cli.StringFlag{Name: "title", Value: "Untitled Document"},
					&cli.StringFlag{Name: "author", Value: "Unknown Author"},
					&cli.StringFlag{Name: "date", Value: "2023-01-01"},
				),
			},
		},
	}

	err := app.Run([]string{
		"test", "ingest",
		"--db", t.TempDir(),
		"--file", "doc.txt",
		"--domain", "quantum",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantum")
}
