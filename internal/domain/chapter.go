package domain

import (
	"strconv"
	"strings"
	"time"
)

// Chapter is a regional subdivision of the association.
type Chapter struct {
	ID          string
	Name        string
	Region      string
	PostalCodes string // comma-separated patterns: exact, range "1000-1099", wildcard "10*"
	Published   bool
	Head        string // member holding the chair role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MatchesPostalCode reports whether the numeric part of a Dutch postal
// code falls under any of the chapter's patterns.
func (c Chapter) MatchesPostalCode(postalCode string) bool {
	digits := postalDigits(postalCode)
	if digits == "" || strings.TrimSpace(c.PostalCodes) == "" {
		return false
	}
	for _, raw := range strings.Split(c.PostalCodes, ",") {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		if matchPostalPattern(pattern, digits) {
			return true
		}
	}
	return false
}

func postalDigits(postalCode string) string {
	trimmed := strings.TrimSpace(postalCode)
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	return trimmed[:end]
}

func matchPostalPattern(pattern, digits string) bool {
	if strings.Contains(pattern, "-") {
		parts := strings.SplitN(pattern, "-", 2)
		low, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		high, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		value, err3 := strconv.Atoi(digits)
		if err1 != nil || err2 != nil || err3 != nil {
			return false
		}
		return value >= low && value <= high
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(digits, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == digits
}

// ChapterRole defines a board function within a chapter.
type ChapterRole struct {
	ID     string
	Name   string
	Chair  bool
	Unique bool // at most one active holder per chapter
}

// BoardMember seats a volunteer on a chapter board.
type BoardMember struct {
	ID        string
	Chapter   string
	Volunteer string
	Member    string
	Role      string
	FromDate  time.Time
	ToDate    *time.Time
	Active    bool
	CreatedAt time.Time
}

// ChapterMember links a member to a chapter's member list.
type ChapterMember struct {
	ID           string
	Chapter      string
	Member       string
	Enabled      bool
	Introduction string
	LeaveReason  string
	JoinedAt     time.Time
}
