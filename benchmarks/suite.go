package benchmarks

import "strings"

// Suite returns the built-in benchmarks. Each targets one characteristic
// of the emulator and ends in a self-loop.
func Suite() []Benchmark {
	return []Benchmark{
		arithmetic(),
		fibonacci(),
		memorySum(),
		bubbleSort(),
		branchLoop(),
		functionCalls(),
	}
}

// Lookup returns the suite benchmark with the given name.
func Lookup(name string) (Benchmark, bool) {
	for _, b := range Suite() {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

// 1. Arithmetic - independent ALU operations
func arithmetic() Benchmark {
	round := `
	addi a0, a0, 1
	addi a1, a1, 1
	addi a2, a2, 1
	addi a3, a3, 1
	addi a4, a4, 1
`
	return Benchmark{
		Name:        "arithmetic",
		Description: "20 independent ADDI operations - measures ALU throughput",
		Source:      "_start:" + strings.Repeat(round, 4) + "done:\n\tj done\n",
		Expected:    map[string]uint32{"a0": 4, "a4": 4},
	}
}

// 2. Fibonacci - a short dependent loop
func fibonacci() Benchmark {
	return Benchmark{
		Name:        "fibonacci",
		Description: "iterative fib(20) - measures a tight dependent loop",
		Source: `
	.equ N, 20
_start:
	li a0, 0		# fib(i)
	li a1, 1		# fib(i+1)
	li t0, N
loop:
	beqz t0, done
	add t1, a0, a1
	mv a0, a1
	mv a1, t1
	addi t0, t0, -1
	j loop
done:
	j done
`,
		Expected: map[string]uint32{"a0": 6765},
	}
}

// 3. Memory sum - sequential loads through the data cache
func memorySum() Benchmark {
	return Benchmark{
		Name:        "memory_sum",
		Description: "sum of 16 words - measures sequential load locality",
		Source: `
	.data
array:
	.word 1, 2, 3, 4, 5, 6, 7, 8
	.word 9, 10, 11, 12, 13, 14, 15, 16

	.text
_start:
	la t0, array
	li t1, 16
	li a0, 0
loop:
	lw t2, 0(t0)
	add a0, a0, t2
	addi t0, t0, 4
	addi t1, t1, -1
	bnez t1, loop
done:
	j done
`,
		Expected: map[string]uint32{"a0": 136},
	}
}

// 4. Bubble sort - loads, stores and data-dependent branches
func bubbleSort() Benchmark {
	return Benchmark{
		Name:        "bubble_sort",
		Description: "bubble sort of 8 words - measures mixed memory and branch work",
		Source: `
	.equ N, 8
	.data
values:
	.word 8, 7, 6, 5, 4, 3, 2, 1

	.text
_start:
	la s0, values
	li s1, N
outer:
	addi s1, s1, -1
	blez s1, check
	mv t0, s0
	mv t1, s1
inner:
	lw t2, 0(t0)
	lw t3, 4(t0)
	ble t2, t3, next
	sw t3, 0(t0)
	sw t2, 4(t0)
next:
	addi t0, t0, 4
	addi t1, t1, -1
	bnez t1, inner
	j outer

check:
	lw a0, 0(s0)
	lw a1, $((N - 1) * 4)(s0)
	li a2, 1		# sorted
	mv t0, s0
	li t1, $(N - 1)
verify:
	lw t2, 0(t0)
	lw t3, 4(t0)
	ble t2, t3, ok
	li a2, 0
ok:
	addi t0, t0, 4
	addi t1, t1, -1
	bnez t1, verify
done:
	j done
`,
		Expected: map[string]uint32{"a0": 1, "a1": 8, "a2": 1},
	}
}

// 5. Branch loop - alternating taken and not-taken branches
func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "100 iterations with an alternating branch - measures branch mix",
		Source: `
_start:
	li t0, 100
	li a0, 0
loop:
	andi t1, t0, 1
	beqz t1, even
	addi a0, a0, 1		# odd
even:
	addi t0, t0, -1
	bnez t0, loop
done:
	j done
`,
		Expected: map[string]uint32{"a0": 50},
	}
}

// 6. Function calls - call/ret pairs with a stack frame
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "5 calls with a stack frame - measures call overhead",
		Source: `
_start:
	li a0, 0
	call add_one
	call add_one
	call add_one
	call add_one
	call add_one
	j done

add_one:
	addi sp, sp, -16
	sw ra, 12(sp)
	sw a0, 8(sp)
	lw a0, 8(sp)
	addi a0, a0, 1
	lw ra, 12(sp)
	addi sp, sp, 16
	ret

done:
	j done
`,
		Expected: map[string]uint32{"a0": 5},
	}
}
