package engine

import "fmt"

func errUnknownSymbol(symbol string) error {
	return fmt.Errorf("engine: unknown symbol %q", symbol)
}
