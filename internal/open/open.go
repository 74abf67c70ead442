package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"crucible/internal/index"
)

// OpenSession opens the raw storage behind a session in $EDITOR. Only
// file-log sessions can be opened this way; sessions stored inside an
// application database have no line-oriented source file.
func OpenSession(db *index.DB, sessionKey string) error {
	session, err := db.GetSessionByKey(sessionKey)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session not found: %s", sessionKey)
	}

	locator := session.Locator
	if locator == "" {
		return fmt.Errorf("session %s has no source file", sessionKey)
	}
	if strings.HasSuffix(locator, ".vscdb") || strings.HasSuffix(locator, ".db") {
		return fmt.Errorf("session %s lives inside %s; use 'crucible show %s' instead", sessionKey, locator, sessionKey)
	}
	if _, err := os.Stat(locator); err != nil {
		return fmt.Errorf("file not found: %s", locator)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	return openInEditor(editor, locator, 1)
}

func openInEditor(editor, filePath string, lineNum int) error {
	var cmd *exec.Cmd

	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		cmd = exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		cmd = exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		cmd = exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		cmd = exec.Command(editor, filePath)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
