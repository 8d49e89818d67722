package paranoia

import "testing"

func TestFilterBuilder(t *testing.T) {
	t.Run("NewFilter creates empty builder", func(t *testing.T) {
		builder := NewFilter()
		if builder == nil {
			t.Fatal("NewFilter() returned nil")
		}
		if len(builder.conditions) != 0 {
			t.Errorf("Expected empty conditions, got %d", len(builder.conditions))
		}
	})

	t.Run("Where adds condition", func(t *testing.T) {
		builder := NewFilter().Where("post_id", OpEqual, int64(7))
		if len(builder.conditions) != 1 {
			t.Fatalf("Expected 1 condition, got %d", len(builder.conditions))
		}
		if builder.conditions[0].Field != "post_id" {
			t.Errorf("Expected field 'post_id', got '%s'", builder.conditions[0].Field)
		}
		if builder.conditions[0].Operator != OpEqual {
			t.Errorf("Expected operator OpEqual, got %v", builder.conditions[0].Operator)
		}
	})

	t.Run("Multiple Where calls chain correctly", func(t *testing.T) {
		builder := NewFilter().
			Where("post_id", OpEqual, int64(7)).
			Where("body", OpNotEqual, "")

		if len(builder.conditions) != 2 {
			t.Errorf("Expected 2 conditions, got %d", len(builder.conditions))
		}
	})

	t.Run("WhereNull and WhereNotNull add unary conditions", func(t *testing.T) {
		builder := NewFilter().WhereNull("deleted_at").WhereNotNull("title")
		if builder.conditions[0].Operator != OpIsNull {
			t.Errorf("Expected OpIsNull, got %v", builder.conditions[0].Operator)
		}
		if builder.conditions[1].Operator != OpIsNotNull {
			t.Errorf("Expected OpIsNotNull, got %v", builder.conditions[1].Operator)
		}
	})

	t.Run("Build copies conditions", func(t *testing.T) {
		builder := NewFilter().Where("id", OpEqual, int64(1))
		filter := builder.Build()
		builder.Where("id", OpEqual, int64(2))
		if len(filter.Conditions) != 1 {
			t.Errorf("Expected built filter to keep 1 condition, got %d", len(filter.Conditions))
		}
	})
}

func TestMerge(t *testing.T) {
	extra := []Condition{{Field: "deleted_at", Operator: OpIsNull}}

	t.Run("nil filter", func(t *testing.T) {
		merged := merge(extra, nil)
		if len(merged.Conditions) != 1 {
			t.Errorf("Expected 1 condition, got %d", len(merged.Conditions))
		}
	})

	t.Run("caller conditions preserved after scope conditions", func(t *testing.T) {
		caller := NewFilter().Where("id", OpEqual, int64(3)).Build()
		merged := merge(extra, caller)
		if len(merged.Conditions) != 2 {
			t.Fatalf("Expected 2 conditions, got %d", len(merged.Conditions))
		}
		if merged.Conditions[1].Field != "id" {
			t.Errorf("Expected caller condition last, got %v", merged.Conditions[1])
		}
		if len(caller.Conditions) != 1 {
			t.Errorf("merge must not mutate the caller filter")
		}
	})
}
