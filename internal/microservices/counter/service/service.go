package service

import (
	"coffeeshop-counter/internal/microservices/counter/events"
	"coffeeshop-counter/internal/microservices/counter/repository"
)

type Service struct {
	OrderService OrderServiceInterface
}

func New(repo *repository.Repository, resolver PriceResolver, publisher events.TicketPublisher) *Service {
	return &Service{
		OrderService: NewOrderService(repo.OrderRepo, repo.IdempotencyRepo, resolver, publisher),
	}
}
