package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/d60-Lab/warbler/config"
	"github.com/d60-Lab/warbler/internal/model"
	"github.com/d60-Lab/warbler/internal/repository"
	"github.com/d60-Lab/warbler/internal/service"
	"github.com/d60-Lab/warbler/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

var sampleTexts = []string{
	"Just saw a red-winged blackbird by the lake.",
	"Coffee first, warbles later.",
	"Does anyone else think pigeons are underrated?",
	"Morning run done. 5k, new personal best!",
	"Reading about bird migration patterns, fascinating stuff.",
	"The sunset tonight was unreal.",
	"Hot take: winter is the best season for birdwatching.",
	"Finally fixed that bug that haunted me all week.",
	"Weekend plans: absolutely nothing, and I love it.",
	"A warbler warbled at me today. Felt personal.",
}

// Seeds demo users, messages, follows and likes through the services,
// so seeded data goes through the same validation as real traffic.
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	authSvc := service.NewAuthService(userRepo)
	messageSvc := service.NewMessageService(messageRepo)
	relSvc := service.NewRelationshipService(followRepo, userRepo)
	likeSvc := service.NewLikeService(likeRepo, messageRepo)

	ctx := context.Background()

	N := 20
	if s := os.Getenv("USERS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			N = n
		}
	}
	M := 5
	if s := os.Getenv("MESSAGES"); s != "" {
		if m, err := strconv.Atoi(s); err == nil && m > 0 {
			M = m
		}
	}

	users := make([]*model.User, 0, N)
	for i := 0; i < N; i++ {
		name := fmt.Sprintf("demo%d", i+1)
		u, err := authSvc.Signup(ctx, service.SignupParams{
			Username: name,
			Email:    name + "@example.com",
			Password: "password",
		})
		if err != nil {
			if errors.Is(err, service.ErrCredentialsTaken) {
				continue
			}
			panic(err)
		}
		users = append(users, u)
	}
	fmt.Printf("created %d users\n", len(users))

	msgs := 0
	var ids []uint
	for _, u := range users {
		for j := 0; j < M; j++ {
			m, err := messageSvc.Post(ctx, u.ID, sampleTexts[rand.Intn(len(sampleTexts))])
			if err != nil {
				panic(err)
			}
			ids = append(ids, m.ID)
			msgs++
		}
	}
	fmt.Printf("created %d messages\n", msgs)

	follows := 0
	for _, u := range users {
		for k := 0; k < 3 && len(users) > 1; k++ {
			target := users[rand.Intn(len(users))]
			if target.ID == u.ID {
				continue
			}
			if err := relSvc.Follow(ctx, u.ID, target.ID); err != nil {
				panic(err)
			}
			follows++
		}
	}
	fmt.Printf("created up to %d follows\n", follows)

	likes := 0
	for _, u := range users {
		for k := 0; k < 5 && len(ids) > 0; k++ {
			if err := likeSvc.Like(ctx, u.ID, ids[rand.Intn(len(ids))]); err != nil {
				panic(err)
			}
			likes++
		}
	}
	fmt.Printf("created up to %d likes\n", likes)
}
