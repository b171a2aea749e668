package fuzzer

import (
	"encoding/binary"
	"fmt"
)

var Debug = false

type opCode byte

const (
	opSet opCode = iota
	opClear
	opFill
	opGet
	opGrow
	opClone
	opIterate
	opMax
)

type op struct {
	code opCode
	x, y int64
}

func Parse(data []byte) (ops []op) {
	scratch := make([]byte, 17)

	for len(data) > 0 {
		n := copy(scratch, data)
		data = data[n:]

		code := opCode(scratch[0] % byte(opMax))
		x := int64(binary.LittleEndian.Uint64(scratch[1:]) >> 1)
		y := int64(binary.LittleEndian.Uint64(scratch[9:]) >> 1)
		ops = append(ops, op{code, x, y})
	}
	return ops
}

func Fuzz(data []byte) int {
	if len(data) < 1 {
		return -1
	}

	tree, err := newCheckedTree()
	if err != nil {
		panic("failed to construct tree")
	}
	for _, op := range Parse(data) {
		switch op.code {
		case opSet:
			tree.set(op.x, op.y, true)
		case opClear:
			tree.set(op.x, op.y, false)
		case opFill:
			tree.fill(op.x, op.y)
		case opGet:
			tree.get(op.x, op.y)
		case opGrow:
			tree.grow(int(op.x))
		case opClone:
			tree.clone()
		case opIterate:
			tree.iterate()
		default:
			panic("impossible")
		}
	}
	if Debug {
		fmt.Printf("checking\n")
	}
	tree.check()
	return 0
}
