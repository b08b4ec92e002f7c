package main

import (
	"context"
	"flag"
	"log"

	"github.com/arenz/postboard/internal/database"
	"github.com/arenz/postboard/internal/services"
)

var users = []struct {
	email    string
	password string
}{
	{"alice@example.com", "wonderland"},
	{"bob@example.com", "builder123"},
	{"carol@example.com", "choir4life"},
}

var posts = []struct {
	owner     int
	title     string
	content   string
	published bool
}{
	{0, "First post", "Hello from the seed data.", true},
	{0, "Thoughts on sourdough", "The starter is the hard part.", true},
	{1, "Building a deck", "Measure twice, cut once.", true},
	{1, "Unfinished draft", "Do not publish this yet.", false},
	{2, "Favorite hiking trails", "Start early, pack water.", true},
}

func main() {
	dbPath := flag.String("db", "./postboard.db", "path to the sqlite database")
	flag.Parse()

	db, err := database.New(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	userService := services.NewUserService(db)
	postService := services.NewPostService(db)
	voteService := services.NewVoteService(db)

	var userIDs []int64
	for _, u := range users {
		user, err := userService.Create(ctx, u.email, u.password)
		if err != nil {
			log.Fatalf("create user %s: %v", u.email, err)
		}
		userIDs = append(userIDs, user.ID)
	}

	var postIDs []int64
	for _, p := range posts {
		post, err := postService.Create(ctx, userIDs[p.owner], p.title, p.content, p.published)
		if err != nil {
			log.Fatalf("create post %q: %v", p.title, err)
		}
		postIDs = append(postIDs, post.ID)
	}

	// Everyone upvotes the first post; Bob and Carol trade votes.
	for _, uid := range userIDs {
		if err := voteService.Create(ctx, uid, postIDs[0]); err != nil {
			log.Fatalf("vote: %v", err)
		}
	}
	if err := voteService.Create(ctx, userIDs[1], postIDs[4]); err != nil {
		log.Fatalf("vote: %v", err)
	}
	if err := voteService.Create(ctx, userIDs[2], postIDs[2]); err != nil {
		log.Fatalf("vote: %v", err)
	}

	log.Printf("seeded %d users, %d posts", len(userIDs), len(postIDs))
}
