//go:build !unix

package lpstat

import "os"

func readKeys(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return splitKeys(data), nil
}
