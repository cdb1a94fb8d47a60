package asset

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"

	"github.com/dixieflatline76/Framer/util/log"
)

//go:embed web/* text/* models/*
var assets embed.FS

// Manager manages the loading of embedded assets.
type Manager struct{}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{}
}

// GetText loads and returns embedded text asset by name.
func (am *Manager) GetText(name string) (string, error) {
	textBytes, err := assets.ReadFile("text/" + name)
	if err != nil {
		log.Println("Error loading text:", err)
		return "", err
	}
	return string(textBytes), nil
}

// GetLines returns the non-empty, non-comment lines of a text asset.
func (am *Manager) GetLines(name string) ([]string, error) {
	text, err := am.GetText(name)
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// GetModel loads and returns embedded model asset by name.
func (am *Manager) GetModel(name string) ([]byte, error) {
	modelData, err := assets.ReadFile("models/" + name)
	if err != nil {
		log.Println("Error loading model:", err)
		return nil, err
	}
	return modelData, nil
}

// LoadingMessages returns the rotating loading lines shown during a generation.
func (am *Manager) LoadingMessages() []string {
	lines, err := am.GetLines("loading_messages.txt")
	if err != nil {
		return nil
	}
	return lines
}

// WebFS returns the embedded web page and its static files.
func (am *Manager) WebFS() fs.FS {
	sub, err := fs.Sub(assets, "web")
	if err != nil {
		// web is embedded, so Sub cannot fail.
		panic(err)
	}
	return sub
}
