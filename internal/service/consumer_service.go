package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"ai-playbook-be/internal/constant"
	"ai-playbook-be/internal/dto"
	"ai-playbook-be/internal/entity"
	"ai-playbook-be/internal/repository/specification"
	"ai-playbook-be/internal/repository/unitofwork"
	"ai-playbook-be/pkg/blocks"
	"ai-playbook-be/pkg/embedding"
	"ai-playbook-be/pkg/llm"
	"ai-playbook-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService rebuilds a document's search embeddings and summary in the
// background whenever its content changes.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	aiProvider        llm.Provider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	aiProvider llm.Provider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		aiProvider:        aiProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // invalid messages are not retriable
		return
	}

	log.Printf("[INFO] Processing document embedding for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}
	if document == nil {
		log.Printf("[WARN] Document not found, skipping: %s", payload.DocumentId)
		msg.Ack()
		return
	}

	markdown := blocks.Flatten(document.Content)

	// Embeddings are computed over plain text; markup tokens only add noise
	content := fmt.Sprintf(`Document Title: %s
Document Type: %s

%s`,
		document.Title,
		document.DocumentType,
		blocks.FlattenText(document.Content),
	)

	// ChunkSize 1500 chars with 200 overlap keeps chunks well inside the
	// embedding model's context
	chunks := utils.SplitText(content, 1500, 200)
	log.Printf("[INFO] Content split into %d chunks", len(chunks))

	var newEmbeddings []*entity.DocumentEmbedding

	for i, chunk := range chunks {
		values, err := cs.embeddingProvider.Generate(ctx, chunk)
		if err != nil {
			log.Printf("[ERROR] Failed to generate embedding for chunk %d of document %s: %v", i, payload.DocumentId, err)
			msg.Nack()
			return
		}

		newEmbeddings = append(newEmbeddings, &entity.DocumentEmbedding{
			Id:             uuid.New(),
			Chunk:          chunk,
			EmbeddingValue: values,
			DocumentId:     document.Id,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	summary := cs.generateSummary(ctx, markdown)

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		log.Printf("[ERROR] Failed to delete old embeddings: %v", err)
		msg.Nack()
		return
	}

	if len(newEmbeddings) > 0 {
		if err := uow.DocumentEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			log.Printf("[ERROR] Failed to create bulk embeddings: %v", err)
			msg.Nack()
			return
		}
	}

	if summary != "" {
		document.Summary = summary
		if err := uow.DocumentRepository().Update(ctx, document); err != nil {
			log.Printf("[ERROR] Failed to update document summary: %v", err)
			msg.Nack()
			return
		}
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit transaction: %v", err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Document processed: %d chunks for DocumentId: %s", len(newEmbeddings), payload.DocumentId)
	msg.Ack()
}

// generateSummary is best effort: a failed summary never blocks embedding.
func (cs *consumerService) generateSummary(ctx context.Context, markdown string) string {
	if cs.aiProvider == nil {
		return ""
	}
	prompt := fmt.Sprintf(constant.SummaryPromptV1, markdown)
	summary, err := cs.aiProvider.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		log.Printf("[WARN] Failed to generate document summary: %v", err)
		return ""
	}
	return summary
}
