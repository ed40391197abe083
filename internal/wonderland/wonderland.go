// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package wonderland implements a client for the Wonderland level-sharing API.
package wonderland

import (
	"errors"
	"fmt"
	"regexp"
)

// Region is a server region code understood by the Wonderland API.
type Region string

// Known server regions.
const (
	RegionAsia    Region = "os_asia"
	RegionEurope  Region = "os_euro"
	RegionAmerica Region = "os_usa"
	RegionCHT     Region = "os_cht"
)

var regionNames = map[Region]string{
	RegionAsia:    "Asia",
	RegionEurope:  "Europe",
	RegionAmerica: "America",
	RegionCHT:     "HK/TW/MO",
}

// Regions returns all known regions in a stable order.
func Regions() []Region {
	return []Region{RegionAsia, RegionEurope, RegionAmerica, RegionCHT}
}

// DisplayName returns the human-readable name of the region, or "N/A" for an
// unknown one.
func (r Region) DisplayName() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return "N/A"
}

// Errors reported by [NewLevelQuery].
var (
	ErrInvalidGUID   = errors.New("invalid GUID")
	ErrUnknownRegion = errors.New("unknown server region")
)

var guidRe = regexp.MustCompile(`^[0-9]+$`)

// LevelQuery identifies a level on a particular server. Construct it with
// [NewLevelQuery]; a zero LevelQuery is not valid.
type LevelQuery struct {
	// GUID is the numeric level identifier.
	GUID string
	// Server is the region the level lives on.
	Server Region
}

// NewLevelQuery validates guid and server and returns a LevelQuery. No network
// calls are made on invalid input.
func NewLevelQuery(guid string, server string) (LevelQuery, error) {
	if !guidRe.MatchString(guid) {
		return LevelQuery{}, fmt.Errorf("%w: %q", ErrInvalidGUID, guid)
	}
	r := Region(server)
	if _, ok := regionNames[r]; !ok {
		return LevelQuery{}, fmt.Errorf("%w: %q", ErrUnknownRegion, server)
	}
	return LevelQuery{GUID: guid, Server: r}, nil
}

// LevelInfo is the normalized result of a successful level lookup. It is
// either fully populated or not returned at all.
type LevelInfo struct {
	// Name is the level name.
	Name string
	// Description is the level description.
	Description string
	// CoverImageURL is the URL of the level's cover image. Empty when the
	// level has no cover.
	CoverImageURL string
	// LevelID is the public level identifier reported by the API.
	LevelID string
}
