package intellisense_test

import (
	"fmt"

	"github.com/oakwood-commons/exprsense/pkg/intellisense"
	"github.com/oakwood-commons/exprsense/pkg/value"
)

func ExampleNewBracketProvider() {
	customer := value.NewObject().
		Set("name", value.String("Ada")).
		Set("e-mail", value.String("ada@example.test")).
		Set("it's", value.Bool(true)).
		Value()

	provider := intellisense.NewBracketProvider(intellisense.ResolverFunc(
		func(template, _ string) (value.Value, error) {
			if template == "={{ $json['customer'] }}" {
				return customer, nil
			}
			return value.Null(), fmt.Errorf("cannot resolve %s", template)
		}))

	text := "={{ $json['customer']['"
	result := provider.Complete(intellisense.Request{Text: text, Cursor: len(text)})
	for _, opt := range result.Options {
		start, end := result.GetMatch(opt)
		fmt.Printf("%s %d-%d\n", opt.Label, start, end)
	}
	fmt.Println("replace from", result.From)

	// Output:
	// 'name'] 0-1
	// 'e-mail'] 0-1
	// 'it\'s'] 0-1
	// replace from 22
}
