package game

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docker/docker/pkg/namesgenerator"
)

// MaxNameLength caps display names, counted in runes.
const MaxNameLength = 32

// RandomName returns a two-word name such as "Hopeful Turing".
func RandomName() string {
	genName := strings.Split(namesgenerator.GetRandomName(0), "_")
	return fmt.Sprintf("%s %s", strings.Title(genName[0]), strings.Title(genName[1]))
}

// DisplayName trims name and falls back to RandomName when it is empty.
func DisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return RandomName()
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name
}
