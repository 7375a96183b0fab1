package guardcore

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var byteUnits = []string{"Bytes", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n in 1024-based units with up to decimals fraction digits.
func FormatBytes(n int64, decimals int) string {
	if n == 0 {
		return "0"
	}
	if decimals < 0 {
		decimals = 0
	}
	scaled := float64(n)
	i := 0
	for math.Abs(scaled) >= 1024 && i < len(byteUnits)-1 {
		scaled /= 1024
		i++
	}
	text := strconv.FormatFloat(scaled, 'f', decimals, 64)
	if strings.Contains(text, ".") {
		text = strings.TrimRight(strings.TrimRight(text, "0"), ".")
	}
	return text + " " + byteUnits[i]
}

// FormatExpiry describes the time left until a unix expiry.
func FormatExpiry(expiryUnix int64, now time.Time) string {
	nowUnix := now.Unix()
	if nowUnix > expiryUnix {
		return "Expired"
	}
	days := floorDiv(expiryUnix-nowUnix, secondsPerDay)
	switch {
	case days < 1:
		return "Less than 1 day"
	case days == 1:
		return "1 day left"
	case days < 30:
		return fmt.Sprintf("%d days left", days)
	}
	months := days / 30
	switch {
	case months == 1:
		return "1 month left"
	case months < 12:
		return fmt.Sprintf("%d months left", months)
	}
	return plural(months/12, "year") + " left"
}

// FormatRelativeTime renders a backend timestamp relative to now. Values
// older than 30 days fall back to a date.
func FormatRelativeTime(value *string, now time.Time) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return "Never"
	}
	t, ok := ParseTimestamp(*value)
	if !ok {
		return *value
	}
	diff := now.Sub(t)
	sec := int64(diff / time.Second)
	minutes := sec / 60
	hours := minutes / 60
	days := hours / 24
	switch {
	case sec < 60:
		return "Just now"
	case minutes < 60:
		return plural(minutes, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	case days < 30:
		return plural(days, "day") + " ago"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

// CalculatePercentage returns current/total as a rounded percentage.
func CalculatePercentage(current, total int64) int64 {
	if total == 0 {
		return 0
	}
	return int64(math.Round(float64(current) / float64(total) * 100))
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// IsValidUsername reports whether name is 3-32 letters, digits, '_' or '-'.
func IsValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// IsStrongPassword requires at least 8 characters, an upper-case letter and a digit.
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && digit
}

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

// GeneratePassword returns a random password of length characters.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = 12
	}
	limit := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// FormatRole returns the display name of role.
func FormatRole(role AdminRole) string {
	return titleCase(string(role))
}

// FormatCategory returns the display name of a node category.
func FormatCategory(category NodeCategory) string {
	return titleCase(string(category))
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
