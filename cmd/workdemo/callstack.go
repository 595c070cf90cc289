// Package workdemo burns CPU through a small, known call graph: a chain of
// four stages, a helper shared by two of them and a recursive fold. Profiling
// it gives real data whose report shape is predictable.
package workdemo

// Root runs the whole workload. amount scales the work done by every stage.
func Root(amount int) int {
	count := CallStackOne(amount, 0)
	return count + Fold(amount/4, 6)
}

func spin(amount, count int) int {
	for i := 0; i < amount; i++ {
		count += i
		if i%2 == 0 {
			count = count / 2
		}
	}
	return count
}

func CallStackOne(amount, count int) int {
	count = spin(amount, count)
	return CallStackTwo(amount, count)
}

func CallStackTwo(amount, count int) int {
	count = spin(amount, count)
	count = Shared(amount/2, count)
	return CallStackThree(amount, count)
}

func CallStackThree(amount, count int) int {
	count = spin(amount, count)
	return CallStackFour(amount, count)
}

func CallStackFour(amount, count int) int {
	count = spin(amount, count)
	return Shared(amount/2, count)
}

// Shared is called from two stages of the chain.
func Shared(amount, count int) int {
	return spin(amount, count)
}

// Fold recurses depth times, spinning at every level.
func Fold(amount, depth int) int {
	count := spin(amount, depth)
	if depth == 0 {
		return count
	}
	return count + Fold(amount, depth-1)
}
