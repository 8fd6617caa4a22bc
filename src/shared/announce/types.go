package announce

// Descriptor defines a message type: which symbolic channel key it posts to
// by default, the embed color, and the title prefix.
type Descriptor struct {
	ChannelKey  string
	Color       int
	TitlePrefix string
}

// DefaultColor is used when a payload is built for an unrecognized type.
const DefaultColor = 0x99AAB5

// Types is the static announcement descriptor set. Per-guild overrides in
// the configuration store may supply a literal channel ID that takes
// precedence over the symbolic lookup.
var Types = map[string]Descriptor{
	// Announcements
	"general": {
		ChannelKey:  "general_announcement_channel_id",
		Color:       0x3498DB,
		TitlePrefix: "📢 General Announcement:",
	},
	"event": {
		ChannelKey:  "event_announcement_channel_id",
		Color:       0xF1C40F,
		TitlePrefix: "🗓️ Event Announcement:",
	},
	"training": {
		ChannelKey:  "training_announcement_channel_id",
		Color:       0x2ECC71,
		TitlePrefix: "🎓 Training Announcement:",
	},
	"websystem": {
		ChannelKey:  "websystem_announcement_channel_id",
		Color:       0xE67E22,
		TitlePrefix: "🌐 Web System Announcement:",
	},
	"facility": {
		ChannelKey:  "facility_announcement_channel_id",
		Color:       0x11806A,
		TitlePrefix: "🏢 Facility Announcement:",
	},
	// Updates
	"general-update": {
		ChannelKey:  "general_announcement_channel_id",
		Color:       0x979C9F,
		TitlePrefix: "⚙️ General Update:",
	},
	"event-update": {
		ChannelKey:  "event_announcement_channel_id",
		Color:       0xC27C0E,
		TitlePrefix: "🗓️ Event Update:",
	},
	"training-update": {
		ChannelKey:  "training_announcement_channel_id",
		Color:       0x1F8B4C,
		TitlePrefix: "📚 Training Update:",
	},
	"websystem-update": {
		ChannelKey:  "websystem_announcement_channel_id",
		Color:       0xA84300,
		TitlePrefix: "🛠️ Web System Update:",
	},
	"facility-update": {
		ChannelKey:  "facility_announcement_channel_id",
		Color:       0x546E7A,
		TitlePrefix: "📰 Facility Update:",
	},
	"event-reminder": {
		ChannelKey:  "event_announcement_channel_id",
		Color:       0xE91E63,
		TitlePrefix: "🔔 Event Reminder:",
	},
	"event-posting": {
		ChannelKey:  "event_announcement_channel_id",
		Color:       0x206694,
		TitlePrefix: "✨ New Event Posting:",
	},
	"event-position-posting": {
		ChannelKey:  "event_announcement_channel_id",
		Color:       0x206694,
		TitlePrefix: "✨ New Event Posting:",
	},
}
