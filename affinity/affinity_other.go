//go:build !linux

package affinity

func Pin(cpu int) (func(), error) {
	return nil, ErrUnsupported
}

func Current() ([]int, error) {
	return nil, ErrUnsupported
}
