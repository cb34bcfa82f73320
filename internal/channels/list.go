// Package channels reads the list of channels to mirror.
package channels

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const commentPrefix = "#"

var ErrUnreadable = errors.New("channel list unreadable")

// File is a channel list on disk. It is read again on every call so edits
// are picked up between scheduled runs.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Channels returns the channel URLs in file order.
func (f *File) Channels() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer file.Close()

	list, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, f.path, err)
	}
	return list, nil
}

// Parse returns one channel per line. Blank lines and lines starting with #
// are skipped.
func Parse(r io.Reader) ([]string, error) {
	var list []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		list = append(list, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
