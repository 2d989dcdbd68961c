package google

import (
	"fmt"
	"regexp"
)

var (
	spreadsheetIDRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	documentIDRe    = regexp.MustCompile(`/document/d/([a-zA-Z0-9_-]+)`)
	driveIDRe       = regexp.MustCompile(`(?:/folders/|/file/d/|/d/|[?&]id=)([a-zA-Z0-9_-]+)`)
	bareIDRe        = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,}$`)
)

func SpreadsheetID(url string) (string, error) {
	return extractID(spreadsheetIDRe, url, "spreadsheet")
}

func DocumentID(url string) (string, error) {
	return extractID(documentIDRe, url, "document")
}

// DriveID accepts folder and file links as well as bare ids.
func DriveID(locator string) (string, error) {
	if bareIDRe.MatchString(locator) {
		return locator, nil
	}

	return extractID(driveIDRe, locator, "drive")
}

func extractID(re *regexp.Regexp, url, kind string) (string, error) {
	match := re.FindStringSubmatch(url)
	if match == nil {
		return "", fmt.Errorf("could not extract %s id from %q", kind, url)
	}

	return match[1], nil
}
