package guildconfig

// Symbolic channel keys. Every guild exposes the full set; unconfigured keys
// resolve to nil.
const (
	ChannelGeneralAnnouncements   = "general_announcement_channel_id"
	ChannelEventAnnouncements     = "event_announcement_channel_id"
	ChannelWebsystemAnnouncements = "websystem_announcement_channel_id"
	ChannelTrainingAnnouncements  = "training_announcement_channel_id"
	ChannelFacilityAnnouncements  = "facility_announcement_channel_id"
	ChannelBreakBoard             = "break_board_channel_id"
	ChannelStaffup                = "staffup_channel_id"
	ChannelWelcome                = "welcome_channel_id"
	ChannelLogging                = "logging_channel_id"
	ChannelImpromptu              = "impromptu_channel_id"
	ChannelNTML                   = "ntml_channel_id"
)

// Symbolic role keys.
const (
	RoleGndUnrestricted = "gnd_unrestricted"
	RoleGndTier1        = "gnd_tier1"
	RoleTwrUnrestricted = "twr_unrestricted"
	RoleTwrTier1        = "twr_tier1"
	RoleAppUnrestricted = "app_unrestricted"
	RolePCT             = "pct"
	RoleCenter          = "center"
	RoleImpromptuCTR    = "impromptu_ctr"
	RoleImpromptuAPP    = "impromptu_app"
	RoleImpromptuTWR    = "impromptu_twr"
	RoleImpromptuGND    = "impromptu_gnd"
	RoleStaff           = "staff"
)

// Category keys.
const (
	CategoryTrainingChannels = "training_channels_category_id"
)

var defaultChannelKeys = []string{
	ChannelGeneralAnnouncements,
	ChannelEventAnnouncements,
	ChannelWebsystemAnnouncements,
	ChannelTrainingAnnouncements,
	ChannelFacilityAnnouncements,
	ChannelBreakBoard,
	ChannelStaffup,
	ChannelWelcome,
	ChannelLogging,
	ChannelImpromptu,
	ChannelNTML,
}

var defaultRoleKeys = []string{
	RoleGndUnrestricted,
	RoleGndTier1,
	RoleTwrUnrestricted,
	RoleTwrTier1,
	RoleAppUnrestricted,
	RolePCT,
	RoleCenter,
	RoleImpromptuCTR,
	RoleImpromptuAPP,
	RoleImpromptuTWR,
	RoleImpromptuGND,
	RoleStaff,
}

var defaultCategoryKeys = []string{
	CategoryTrainingChannels,
}

// AnnouncementOverride is a per-guild override for one announcement type.
type AnnouncementOverride struct {
	ChannelID *int64 `json:"channel_id"`
}

// GuildConfig is the merged, fully-defaulted configuration for one guild.
// Every default key is present; unset values are nil.
type GuildConfig struct {
	Channels          map[string]*int64                `json:"channels"`
	Roles             map[string]*int64                `json:"roles"`
	Categories        map[string]*int64                `json:"categories"`
	AnnouncementTypes map[string]*AnnouncementOverride `json:"announcement_types"`
}

// defaultConfig returns a fresh skeleton with every known key set to nil.
func defaultConfig() GuildConfig {
	cfg := GuildConfig{
		Channels:          make(map[string]*int64, len(defaultChannelKeys)),
		Roles:             make(map[string]*int64, len(defaultRoleKeys)),
		Categories:        make(map[string]*int64, len(defaultCategoryKeys)),
		AnnouncementTypes: make(map[string]*AnnouncementOverride),
	}
	for _, k := range defaultChannelKeys {
		cfg.Channels[k] = nil
	}
	for _, k := range defaultRoleKeys {
		cfg.Roles[k] = nil
	}
	for _, k := range defaultCategoryKeys {
		cfg.Categories[k] = nil
	}
	return cfg
}

// merged builds a GuildConfig from persisted data layered over the default
// skeleton. Nested maps extend the defaults key by key, so guilds persisted
// under an older schema pick up new default keys as nil.
func merged(persisted GuildConfig) GuildConfig {
	cfg := defaultConfig()
	for k, v := range persisted.Channels {
		cfg.Channels[k] = v
	}
	for k, v := range persisted.Roles {
		cfg.Roles[k] = v
	}
	for k, v := range persisted.Categories {
		cfg.Categories[k] = v
	}
	for k, v := range persisted.AnnouncementTypes {
		cfg.AnnouncementTypes[k] = v
	}
	return cfg
}

// Clone returns a deep copy so callers can mutate and pass the result to Save
// without aliasing the store's snapshot.
func (c GuildConfig) Clone() GuildConfig {
	out := GuildConfig{
		Channels:          make(map[string]*int64, len(c.Channels)),
		Roles:             make(map[string]*int64, len(c.Roles)),
		Categories:        make(map[string]*int64, len(c.Categories)),
		AnnouncementTypes: make(map[string]*AnnouncementOverride, len(c.AnnouncementTypes)),
	}
	for k, v := range c.Channels {
		out.Channels[k] = copyID(v)
	}
	for k, v := range c.Roles {
		out.Roles[k] = copyID(v)
	}
	for k, v := range c.Categories {
		out.Categories[k] = copyID(v)
	}
	for k, v := range c.AnnouncementTypes {
		if v == nil {
			out.AnnouncementTypes[k] = nil
			continue
		}
		out.AnnouncementTypes[k] = &AnnouncementOverride{ChannelID: copyID(v.ChannelID)}
	}
	return out
}

func copyID(v *int64) *int64 {
	if v == nil {
		return nil
	}
	id := *v
	return &id
}
