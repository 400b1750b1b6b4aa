package generator_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/juliaset/pkg/function"
	"github.com/matzehuels/juliaset/pkg/generator"
)

func ExampleGenerator_Generate() {
	f1, _ := function.NewLinear(1, 2, 0)
	f2, _ := function.NewLinear(1, 2, -1)

	g, err := generator.New(generator.Config{
		Type:      generator.FullJuliaComposite,
		Functions: []*function.Function{f1, f2},
		Params:    generator.FixedParams{N: 8, Z0: 1},
	})
	if err != nil {
		panic(err)
	}

	points, err := g.Generate(context.Background(), func(p int) {
		fmt.Printf("progress %d%%\n", p)
	})
	if err != nil {
		panic(err)
	}
	fmt.Println("points:", len(points))
	// Output:
	// progress 25%
	// progress 50%
	// progress 100%
	// points: 8
}
