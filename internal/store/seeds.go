package store

// Seed content written the first time a profile comes online, mirroring the
// sample data the product ships with. Collections that already hold a value
// are never reseeded.

func SeedPosts() []Post {
	return []Post{
		{
			ID:         "p1",
			UserID:     "u2",
			UserName:   "David Kim",
			UserAvatar: "DK",
			Content:    "Just finished the Calculus notes for week 4. Check the vault! 📚✨",
			MediaURL:   "https://images.unsplash.com/photo-1513542789411-b6a5d4f31634?w=800",
			Likes:      24,
			Comments: []Comment{
				{ID: "c1", UserID: "u1", UserName: "Me", Content: "Lifesaver! Thanks David.", Timestamp: "10m ago"},
			},
			Timestamp: "1h ago",
		},
		{
			ID:         "p2",
			UserID:     "u3",
			UserName:   "Elena Rossi",
			UserAvatar: "ER",
			Content:    "Library mood today. Who is down for a study session? ☕️",
			MediaURL:   "https://images.unsplash.com/photo-1524995997946-a1c2e315a42f?w=800",
			Likes:      42,
			Comments:   []Comment{},
			Timestamp:  "4h ago",
		},
	}
}

func SeedTasks() []Task {
	return []Task{
		{ID: "t1", Title: "Submit Physics Lab Report", DueDate: "2024-05-20", Status: "pending", Priority: "high", Subject: "Physics"},
	}
}

func SeedQuizzes() []Quiz {
	return []Quiz{
		{ID: "q1", Title: "Daily Math Challenge", Subject: "Math", QuestionsCount: 5, TimeLimit: 10, Difficulty: "medium"},
	}
}

func SeedNotes() []CollaborativeNote {
	return []CollaborativeNote{
		{
			ID:            "n1",
			Title:         "Final Project Brainstorming",
			Emoji:         "🚀",
			Content:       "Initial thoughts on history presentation...",
			LastEditedBy:  "Elena Rossi",
			LastEditedAt:  "2024-05-15T10:30:00Z",
			Collaborators: []string{"Elena Rossi", "David Kim", "Me"},
		},
	}
}

func SeedPulse() []PulseItem {
	return []PulseItem{
		{
			ID:        "pl1",
			Title:     "Neural Fact",
			Content:   "Honey never spoils. Archaeologists have found edible 3,000-year-old honey in Egyptian tombs.",
			Category:  "fact",
			Timestamp: "Just now",
		},
	}
}

func SeedChannels() []Channel {
	return []Channel{
		{ID: "gen", Name: "Global Class", Type: "general", Icon: "Hash"},
		{ID: "qa", Name: "Anonymous Help", Type: "qa", Icon: "HelpCircle"},
	}
}

func SeedMentors() []Mentor {
	return []Mentor{
		{ID: "m1", Name: "David Kim", Avatar: "DK", Strengths: []string{"Calculus", "Physics"}, HelpCount: 42, Rating: 4.9, Status: "online"},
	}
}

func SeedStats() SystemStats {
	return SystemStats{TotalUsers: 1420, ActiveNow: 86, AIRequests: 12402, SystemHealth: 99.8}
}
