package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Attempt records one answer to a question. Append-only.
type Attempt struct {
	ent.Schema
}

func (Attempt) Fields() []ent.Field {
	return []ent.Field{
		field.String("selected_label").
			NotEmpty().
			Immutable().
			Comment("Option label the user chose, upper case"),
		field.Bool("is_correct").
			Immutable().
			Comment("Computed at write time against the stored correct label"),
		field.Time("answered_at").
			Default(time.Now).
			Immutable().
			Comment("UTC time the answer was recorded"),
		field.String("question_id").
			Immutable().
			Comment("Links to Question"),
	}
}

func (Attempt) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("question", Question.Type).
			Ref("attempts").
			Field("question_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (Attempt) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("question_id"),
		index.Fields("answered_at"),
	}
}
