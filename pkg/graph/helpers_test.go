package graph_test

import "os"

func writeExecutable(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o755)
}
