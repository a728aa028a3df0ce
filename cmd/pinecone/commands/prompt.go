package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/pinecone/internal/constants"
)

// readAPIKey reads the key from stdin when asked to, or from the terminal
// without echo.
func readAPIKey(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}

		return strings.TrimSpace(line), nil
	}

	fd := int(os.Stdin.Fd()) // #nosec G115
	if !term.IsTerminal(fd) {
		return "", constants.ErrKeyNotReadable
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "API Key: ")

	keyBytes, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.ErrOrStderr())

	return strings.TrimSpace(string(keyBytes)), nil
}

// confirm asks a yes/no question; anything but y or yes declines.
func confirm(cmd *cobra.Command, prompt string) bool {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (y/N): ", prompt)

	var response string

	_, _ = fmt.Fscanln(cmd.InOrStdin(), &response)

	response = strings.ToLower(strings.TrimSpace(response))

	return response == "y" || response == constants.ConfirmationYes
}

// validateFilePath rejects relative paths that climb out of the working directory.
func validateFilePath(filePath string) error {
	cleanPath := filepath.Clean(filePath)

	if filepath.IsAbs(filePath) {
		if cleanPath != filePath {
			return constants.ErrDirectoryTraversal
		}
	} else if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return constants.ErrDirectoryTraversal
	}

	_, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}

	return nil
}
