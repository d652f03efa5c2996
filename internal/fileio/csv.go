package fileio

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// readCSV reads CSV with headerRow (1-based), auto-detecting encoding and
// converting to UTF-8. Exports from Dutch Excel installs are frequently
// Windows-1252 and semicolon-delimited; both are handled.
func readCSV(r io.Reader, headerRow int) ([]map[string]string, error) {
	br := bufio.NewReader(r)

	peek, _ := br.Peek(2048)
	cs := "utf-8"
	if len(peek) > 0 {
		if det, err := chardet.NewTextDetector().DetectBest(peek); err == nil && det != nil {
			cs = strings.ToLower(det.Charset)
		}
	}

	var dec io.Reader = br
	switch cs {
	case "windows-1252", "iso-8859-1", "iso-8859-15":
		dec = transform.NewReader(br, charmap.Windows1252.NewDecoder())
	default:
		// assume UTF-8
	}

	delim := detectDelimiter(peek)

	cr := csv.NewReader(dec)
	cr.Comma = delim
	cr.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := pickHeader(rows, headerRow)
	return rowsToMaps(rows, h, headerRow), nil
}

// detectDelimiter prefers semicolons when the first lines carry more of them
// than commas (the Dutch-locale Excel default).
func detectDelimiter(peek []byte) rune {
	semis, commas := 0, 0
	for _, b := range peek {
		switch b {
		case ';':
			semis++
		case ',':
			commas++
		}
	}
	if semis > commas {
		return ';'
	}
	return ','
}
