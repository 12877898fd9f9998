// Package memory implementa los repositorios en memoria (dev y tests).
package memory

import "errors"

var ErrNotFound = errors.New("not found")
