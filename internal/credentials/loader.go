package credentials

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadFile reads a token file. Each non-empty line is one account:
// "access", "access:refresh" or "access,refresh". Lines starting with # are ignored
func LoadFile(path string) ([]Credential, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tokens file: %w", err)
	}
	defer f.Close()

	creds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return creds, nil
}

// Parse reads credentials from r in line order
func Parse(r io.Reader) ([]Credential, error) {
	var creds []Credential

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cred, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		creds = append(creds, cred)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(creds) == 0 {
		return nil, ErrNoAccounts
	}
	return creds, nil
}

func parseLine(line string) (Credential, error) {
	access, refresh := line, ""
	if i := strings.IndexAny(line, ",:"); i >= 0 {
		access, refresh = line[:i], line[i+1:]
	}

	access = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(access), "Bearer "))
	refresh = strings.TrimSpace(refresh)

	if access == "" {
		return Credential{}, fmt.Errorf("empty access token")
	}
	return Credential{Access: access, Refresh: refresh}, nil
}
