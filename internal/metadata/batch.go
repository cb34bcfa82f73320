package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"channel_mirror/internal/domain"
)

// Parser reads every info document the fetcher left in a directory.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseDir parses each *.json file in dir on its own. A bad document ends up
// in Batch.Failures and never stops the rest of the directory. Every valid
// video is attributed to channelURL. Only an unreadable directory is an error.
func (p *Parser) ParseDir(dir, channelURL string) (*domain.Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fetch dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	batch := &domain.Batch{Total: len(names)}
	for _, name := range names {
		video, err := parseFile(filepath.Join(dir, name))
		if err != nil {
			batch.Failures = append(batch.Failures, domain.ParseFailure{File: name, Reason: err.Error()})
			continue
		}
		video.ChannelURL = channelURL
		batch.Valid = append(batch.Valid, video)
	}

	return batch, nil
}

func parseFile(path string) (domain.Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Video{}, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}
