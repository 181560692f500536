package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	"github.com/abhisek/quizstreak/internal/quiz"
)

// Question holds one generated multiple-choice question. Rows are never
// updated or deleted.
type Question struct {
	ent.Schema
}

func (Question) Mixin() []ent.Mixin {
	return []ent.Mixin{CreatedAtMixin{}}
}

func (Question) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Unique().
			Immutable().
			Comment("Opaque correlation key carried in action payloads"),
		field.String("source_reference").
			Default("").
			Immutable().
			Comment("Originating candidate item, e.g. a problem name"),
		field.Text("prompt").
			Immutable().
			Comment("Context text sent before the question"),
		field.Text("question_text").
			Immutable().
			Comment("The MCQ stem"),
		field.JSON("options", []quiz.Option{}).
			Immutable().
			Comment("Labelled options in display order"),
		field.Text("explanation").
			Immutable().
			Comment("Rationale shown after an answer"),
	}
}

func (Question) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("attempts", Attempt.Type),
		edge.To("deliveries", Delivery.Type),
	}
}
