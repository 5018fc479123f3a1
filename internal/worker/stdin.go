package worker

import (
	"bufio"
	"io"
	"strings"
)

// ReadInputs reads one query per line from r. Lines are trimmed; blank lines
// and lines starting with '#' are dropped, as is anything after the first
// whitespace so "1.1.1.1 resolver" yields "1.1.1.1".
func ReadInputs(r io.Reader) ([]string, error) {
	var inputs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		inputs = append(inputs, fields[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return inputs, nil
}
