package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hongminglow/reveal-be/internal/publisher"
)

type Publisher struct {
	mock.Mock
}

func (p *Publisher) PublishBetPlaced(arg1 context.Context, arg2 publisher.BetPlaced) error {
	args := p.Called(arg1, arg2)
	return args.Error(0)
}

func (p *Publisher) PublishEventRevealed(arg1 context.Context, arg2 publisher.EventRevealed) error {
	args := p.Called(arg1, arg2)
	return args.Error(0)
}
