package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Delivery records that a question message reached the chat transport.
type Delivery struct {
	ent.Schema
}

func (Delivery) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("chat_id").
			Comment("Destination chat"),
		field.String("message_id").
			Default("").
			Comment("Transport id of the question message"),
		field.Time("delivered_at").
			Default(time.Now).
			Immutable(),
		field.String("question_id").
			Immutable().
			Comment("Links to Question"),
	}
}

func (Delivery) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("question", Question.Type).
			Ref("deliveries").
			Field("question_id").
			Unique().
			Required().
			Immutable(),
	}
}

func (Delivery) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("question_id"),
	}
}
