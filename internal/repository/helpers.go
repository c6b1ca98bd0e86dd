package repository

import "fmt"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}
