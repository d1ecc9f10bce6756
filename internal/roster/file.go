package roster

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk roster format used by the offline calculator:
//
//	members:
//	  - id: "1001"
//	    name: Aria
//	    count: 9
//	    rate: 0.9
type File struct {
	Members []Member `yaml:"members"`
}

// FileSource serves the same member list for every guild.
type FileSource struct {
	members []Member
}

func LoadFile(path string) (*FileSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return ParseFile(raw)
}

func ParseFile(raw []byte) (*FileSource, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Members))
	for i, m := range f.Members {
		if m.ID == "" {
			m.ID = m.Name
		}
		if m.ID == "" {
			return nil, fmt.Errorf("roster entry %d has neither id nor name", i+1)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("duplicate roster id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
		if m.Name == "" {
			m.Name = m.ID
		}
		if m.AttendanceRate < 0 {
			m.AttendanceRate = 0
		}
		f.Members[i] = m
	}
	return &FileSource{members: f.Members}, nil
}

func (s *FileSource) Members(ctx context.Context, guildID int64) ([]Member, error) {
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out, nil
}
