package domain

// Входные данные мутаций. Теги json задают имена полей GraphQL и ошибок,
// validate - правила проверки, msg - текст ошибки для формы, msg_<правило> -
// текст для отдельного правила.

type SignUpInput struct {
	Email    *string `json:"email" validate:"omitnil,email" msg:"email must be an email"`
	Username string  `json:"username" validate:"min=3,max=20" msg:"Username must be between 3 and 20 characters"`
	Password string  `json:"password" validate:"min=8,maxbytes=72" msg:"Password must be at least 8 characters long" msg_maxbytes:"Password must be at most 72 bytes long"`
}

type LogInInput struct {
	Username string `json:"username" validate:"min=3,max=20" msg:"Username must be between 3 and 20 characters"`
	Password string `json:"password" validate:"min=8,maxbytes=72" msg:"Password must be at least 8 characters long" msg_maxbytes:"Password must be at most 72 bytes long"`
}

type CreateCommunityInput struct {
	Name        string        `json:"name" validate:"min=1,max=21" msg:"Name must be between 1 and 21 characters"`
	Type        CommunityType `json:"type" validate:"oneof=private protected public" msg:"Type must be 1 of 3 values(private, protected, public)"`
	IsNsfw      bool          `json:"isNsfw"`
	Description *string       `json:"description" validate:"omitnil,max=500" msg:"Description must be at most 500 characters"`
}

type CreatePostInput struct {
	Title             string      `json:"title" validate:"min=1,max=300" msg:"Title must be between 1 and 300 characters"`
	ContentKind       ContentKind `json:"contentKind" validate:"oneof=link self video videogif" msg:"Type must be 1 of 4 values(link, self, video, videogif)"`
	SubmitType        SubmitType  `json:"submitType" validate:"oneof=community profile" msg:"Type must be 1 of 2 values(community, profile)"`
	IsNsfw            bool        `json:"isNsfw"`
	IsSpoiler         bool        `json:"isSpoiler"`
	IsOriginalContent bool        `json:"isOriginalContent"`
	SendReplies       bool        `json:"sendReplies"`
	LinkURL           *string     `json:"linkUrl" validate:"omitnil,url" msg:"Link must be a valid url"`
	RichTextJSON      *string     `json:"richTextJson"`
}
