package domain

import "time"

// CommunityType - тип видимости сообщества.
type CommunityType string

const (
	CommunityPrivate   CommunityType = "private"
	CommunityProtected CommunityType = "protected"
	CommunityPublic    CommunityType = "public"
)

// ContentKind - вид содержимого поста.
type ContentKind string

const (
	ContentLink     ContentKind = "link"
	ContentSelf     ContentKind = "self"
	ContentVideo    ContentKind = "video"
	ContentVideoGif ContentKind = "videogif"
)

// SubmitType - куда публикуется пост.
type SubmitType string

const (
	SubmitCommunity SubmitType = "community"
	SubmitProfile   SubmitType = "profile"
)

// User представляет зарегистрированного пользователя.
// Password всегда хранит bcrypt-хэш, никогда не открытый текст.
type User struct {
	ID                             string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username                       string    `json:"username" gorm:"type:varchar(20);not null;uniqueIndex"`
	Email                          *string   `json:"email,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	Password                       string    `json:"-" gorm:"type:varchar(255);not null"`
	HasValidated                   bool      `json:"hasValidated" gorm:"not null;default:false"`
	ProfileID                      string    `json:"-" gorm:"type:uuid;not null"`
	GeneralPreferencesID           string    `json:"-" gorm:"type:uuid;not null"`
	NotificationPreferencesID      string    `json:"-" gorm:"type:uuid;not null"`
	EmailNotificationPreferencesID string    `json:"-" gorm:"type:uuid;not null"`
	CreatedAt                      time.Time `json:"createdAt" gorm:"not null;default:now()"`
	UpdatedAt                      time.Time `json:"updatedAt" gorm:"not null;default:now()"`

	Profile                      *Profile                      `json:"-" gorm:"foreignKey:ProfileID"`                      // gorm only
	GeneralPreferences           *GeneralPreferences           `json:"-" gorm:"foreignKey:GeneralPreferencesID"`           // gorm only
	NotificationPreferences      *NotificationPreferences      `json:"-" gorm:"foreignKey:NotificationPreferencesID"`      // gorm only
	EmailNotificationPreferences *EmailNotificationPreferences `json:"-" gorm:"foreignKey:EmailNotificationPreferencesID"` // gorm only
}

// Profile - публичная часть аккаунта, создается вместе с пользователем.
type Profile struct {
	ID                     string  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	About                  *string `json:"about" gorm:"type:varchar(200)"`
	ActivityVisibility     bool    `json:"activityVisibility" gorm:"not null;default:true"`
	AvatarURL              *string `json:"avatarUrl" gorm:"type:varchar(255)"`
	AwardeeKarma           int     `json:"awardeeKarma" gorm:"not null;default:0"`
	AwarderKarma           int     `json:"awarderKarma" gorm:"not null;default:0"`
	BannerURL              *string `json:"bannerUrl" gorm:"type:varchar(255)"`
	CanCreateCommunities   bool    `json:"canCreateCommunities" gorm:"not null;default:true"`
	CoinCount              int     `json:"coinCount" gorm:"not null;default:0"`
	ContentVisibility      bool    `json:"contentVisibility" gorm:"not null;default:true"`
	CommentKarma           int     `json:"commentKarma" gorm:"not null;default:0"`
	DisplayName            *string `json:"displayName" gorm:"type:varchar(30)"`
	HasNightmode           bool    `json:"hasNightmode" gorm:"not null;default:false"`
	HasPaypalSubscription  bool    `json:"hasPaypalSubscription" gorm:"not null;default:false"`
	HasPremium             bool    `json:"hasPremium" gorm:"not null;default:false"`
	HasStripeSubscription  bool    `json:"hasStripeSubscription" gorm:"not null;default:false"`
	HasUnreadMail          bool    `json:"hasUnreadMail" gorm:"not null;default:false"`
	HasUnreadModmail       bool    `json:"hasUnreadModmail" gorm:"not null;default:false"`
	HasVerifiedEmail       bool    `json:"hasVerifiedEmail" gorm:"not null;default:false"`
	IsModerator            bool    `json:"isModerator" gorm:"not null;default:false"`
	IsSuspended            bool    `json:"isSuspended" gorm:"not null;default:false"`
	PostKarma              int     `json:"postKarma" gorm:"not null;default:0"`
	ShowNsfw               bool    `json:"showNsfw" gorm:"not null;default:false"`
}

// NewProfile возвращает профиль со значениями по умолчанию.
func NewProfile() *Profile {
	return &Profile{
		ActivityVisibility:   true,
		CanCreateCommunities: true,
		ContentVisibility:    true,
	}
}

// GeneralPreferences - общие настройки интерфейса пользователя.
type GeneralPreferences struct {
	ID                   string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	AutoplayMedia        bool      `json:"autoplayMedia" gorm:"not null;default:true"`
	BlurNsfw             bool      `json:"blurNsfw" gorm:"not null;default:true"`
	ChatRequestsFrom     string    `json:"chatRequestsFrom" gorm:"type:varchar(10);not null;default:'Everyone'"`
	CommunityContentSort string    `json:"communityContentSort" gorm:"type:varchar(10);not null;default:'Hot'"`
	MarkdownIsDefault    bool      `json:"markdownIsDefault" gorm:"not null;default:false"`
	PrivateMessageFrom   string    `json:"privateMessageFrom" gorm:"type:varchar(10);not null;default:'Everyone'"`
	OpenPostInNewTab     bool      `json:"openPostInNewTab" gorm:"not null;default:false"`
	ReduceAnimations     bool      `json:"reduceAnimations" gorm:"not null;default:false"`
	RememberPerCommunity bool      `json:"rememberPerCommunity" gorm:"not null;default:true"`
	UseCommunityThemes   bool      `json:"useCommunityThemes" gorm:"not null;default:true"`
	ViewNsfw             bool      `json:"viewNsfw" gorm:"not null;default:false"`
	CreatedAt            time.Time `json:"createdAt" gorm:"not null;default:now()"`
	UpdatedAt            time.Time `json:"updatedAt" gorm:"not null;default:now()"`
}

// NewGeneralPreferences возвращает настройки по умолчанию.
func NewGeneralPreferences() *GeneralPreferences {
	return &GeneralPreferences{
		AutoplayMedia:        true,
		BlurNsfw:             true,
		ChatRequestsFrom:     "Everyone",
		CommunityContentSort: "Hot",
		PrivateMessageFrom:   "Everyone",
		RememberPerCommunity: true,
		UseCommunityThemes:   true,
	}
}

// NotificationPreferences - какие уведомления пользователь получает на сайте.
type NotificationPreferences struct {
	ID                 string `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Announcements      bool   `json:"announcements" gorm:"not null;default:true"`
	AwardsReceived     bool   `json:"awardsReceived" gorm:"not null;default:true"`
	CakeDay            bool   `json:"cakeDay" gorm:"not null;default:true"`
	ChatMessages       bool   `json:"chatMessages" gorm:"not null;default:true"`
	ChatsPostsActivity bool   `json:"chatsPostsActivity" gorm:"not null;default:true"`
	ChatRequests       bool   `json:"chatRequests" gorm:"not null;default:true"`
	CommentReplies     bool   `json:"commentReplies" gorm:"not null;default:true"`
	CommentsActivity   bool   `json:"commentsActivity" gorm:"not null;default:true"`
	CommentsOnPosts    bool   `json:"commentsOnPosts" gorm:"not null;default:true"`
	InboxMessages      bool   `json:"inboxMessages" gorm:"not null;default:true"`
	ModNotifications   bool   `json:"modNotifications" gorm:"not null;default:true"`
	NewFollowers       bool   `json:"newFollowers" gorm:"not null;default:true"`
	NewPostFlair       bool   `json:"newPostFlair" gorm:"not null;default:true"`
	NewUserFlair       bool   `json:"newUserFlair" gorm:"not null;default:true"`
	PinnedPosts        bool   `json:"pinnedPosts" gorm:"not null;default:true"`
	ThreadsActivity    bool   `json:"threadsActivity" gorm:"not null;default:true"`
	UpvotesOnComments  bool   `json:"upvotesOnComments" gorm:"not null;default:true"`
	UpvotesOnPosts     bool   `json:"upvotesOnPosts" gorm:"not null;default:true"`
	UsernameMentions   bool   `json:"usernameMentions" gorm:"not null;default:true"`
}

// NewNotificationPreferences - все уведомления включены.
func NewNotificationPreferences() *NotificationPreferences {
	return &NotificationPreferences{
		Announcements: true, AwardsReceived: true, CakeDay: true, ChatMessages: true,
		ChatsPostsActivity: true, ChatRequests: true, CommentReplies: true, CommentsActivity: true,
		CommentsOnPosts: true, InboxMessages: true, ModNotifications: true, NewFollowers: true,
		NewPostFlair: true, NewUserFlair: true, PinnedPosts: true, ThreadsActivity: true,
		UpvotesOnComments: true, UpvotesOnPosts: true, UsernameMentions: true,
	}
}

// EmailNotificationPreferences - какие письма пользователь получает.
type EmailNotificationPreferences struct {
	ID               string `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InboxMessages    bool   `json:"inboxMessages" gorm:"not null;default:true"`
	ChatRequests     bool   `json:"chatRequests" gorm:"not null;default:true"`
	CommentReplies   bool   `json:"commentReplies" gorm:"not null;default:true"`
	CommentUpvotes   bool   `json:"commentUpvotes" gorm:"not null;default:true"`
	NewFollowers     bool   `json:"newFollowers" gorm:"not null;default:true"`
	PostComments     bool   `json:"postComments" gorm:"not null;default:true"`
	PostUpvotes      bool   `json:"postUpvotes" gorm:"not null;default:true"`
	UsernameMentions bool   `json:"usernameMentions" gorm:"not null;default:true"`
}

// NewEmailNotificationPreferences - все письма включены.
func NewEmailNotificationPreferences() *EmailNotificationPreferences {
	return &EmailNotificationPreferences{
		InboxMessages: true, ChatRequests: true, CommentReplies: true, CommentUpvotes: true,
		NewFollowers: true, PostComments: true, PostUpvotes: true, UsernameMentions: true,
	}
}

// Community представляет сообщество (сабреддит).
type Community struct {
	ID           string        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string        `json:"name" gorm:"type:varchar(21);not null;uniqueIndex"`
	Type         CommunityType `json:"type" gorm:"type:varchar(10);not null"`
	IsNsfw       bool          `json:"isNsfw" gorm:"not null;default:false"`
	Description  *string       `json:"description" gorm:"type:varchar(500)"`
	BannerURL    string        `json:"bannerUrl" gorm:"type:varchar(255);not null;default:'#33a8ff'"`
	BannerHeight string        `json:"bannerHeight" gorm:"type:varchar(10);not null;default:'small'"`
	CoinCount    int           `json:"coinCount" gorm:"not null;default:0"`
	IconURL      *string       `json:"iconUrl" gorm:"type:varchar(255)"`
	Location     *string       `json:"location" gorm:"type:varchar(255)"`
	ThemeColor   string        `json:"themeColor" gorm:"type:varchar(10);not null;default:'#0079d3'"`
	Topics       *string       `json:"topics" gorm:"type:text"`
	CreatorID    string        `json:"creatorId" gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"not null;default:now()"`
	UpdatedAt    time.Time     `json:"updatedAt" gorm:"not null;default:now()"`
	Creator      *User         `json:"-" gorm:"foreignKey:CreatorID"` // gorm only
	Posts        []*Post       `json:"-" gorm:"foreignKey:CommunityID"` // gorm only
}

// Post представляет пост в сообществе.
type Post struct {
	ID                string      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title             string      `json:"title" gorm:"type:varchar(300);not null"`
	ContentKind       ContentKind `json:"contentKind" gorm:"type:varchar(8);not null"`
	SubmitType        SubmitType  `json:"submitType" gorm:"type:varchar(9);not null"`
	IsNsfw            bool        `json:"isNsfw" gorm:"not null;default:false"`
	IsSpoiler         bool        `json:"isSpoiler" gorm:"not null;default:false"`
	IsOriginalContent bool        `json:"isOriginalContent" gorm:"not null;default:false"`
	SendReplies       bool        `json:"sendReplies" gorm:"not null"`
	LinkURL           *string     `json:"linkUrl" gorm:"type:varchar(2048)"`
	RichTextJSON      *string     `json:"richTextJson" gorm:"type:text"`
	CommunityID       string      `json:"communityId" gorm:"type:uuid;not null;index"`
	CreatorID         string      `json:"creatorId" gorm:"type:uuid;not null;index"`
	CreatedAt         time.Time   `json:"createdAt" gorm:"not null;default:now()"`
	UpdatedAt         time.Time   `json:"updatedAt" gorm:"not null;default:now()"`
}
