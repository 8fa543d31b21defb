package common

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const logFileName = "precis.log"

// InitLogger builds the application logger from the logging configuration:
// one writer per configured output, text or JSON rendering per the format
// setting, level from the config.
func InitLogger(config *Config) arbor.ILogger {
	textOutput := config.Logging.Format != "json"
	logger := arbor.NewLogger()

	for _, output := range config.Logging.Output {
		switch output {
		case "stdout", "console":
			logger = logger.WithConsoleWriter(consoleWriterConfig(textOutput))
		case "file":
			logFile, err := resolveLogFilePath()
			if err != nil {
				fmt.Printf("Warning: file logging disabled: %v\n", err)
				continue
			}
			logger = logger.WithFileWriter(fileWriterConfig(logFile, textOutput))
		}
	}

	return logger.WithLevelFromString(config.Logging.Level)
}

func consoleWriterConfig(textOutput bool) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
		OutputType: outputFormat(textOutput),
	}
}

func fileWriterConfig(fileName string, textOutput bool) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   fileName,
		TimeFormat: "15:04:05",
		MaxSize:    100 * 1024 * 1024, // 100 MB
		MaxBackups: 3,
		OutputType: outputFormat(textOutput),
	}
}

func outputFormat(textOutput bool) models.OutputFormat {
	if textOutput {
		return models.OutputFormatLogfmt
	}
	return models.OutputFormatJSON
}

// resolveLogFilePath places the log file in a logs directory next to the
// executable, creating the directory on first use
func resolveLogFilePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("cannot resolve executable path: %w", err)
	}
	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("cannot create logs directory: %w", err)
	}
	return filepath.Join(logsDir, logFileName), nil
}
