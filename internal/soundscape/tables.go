package soundscape

import "github.com/Adweery/soundstory-app-nnkocz/internal/narrative"

// Neutral fallbacks used when a lookup key is somehow absent. The enums are
// closed so the tables below are dense, but the fallback is a named branch
// rather than an accident of map zero values.
const (
	DefaultMusicTrack   = "music_neutral_drift"
	DefaultAmbientTrack = "amb_neutral_roomtone"
	DefaultSfxTrack     = "sfx_soft_chime"
)

// musicTable maps (mood, setting) to a looping music bed. Dense over both
// enumerations.
var musicTable = map[narrative.Mood]map[narrative.Setting]string{
	narrative.MoodCalm: {
		narrative.SettingForest:  "music_calm_forest_glade",
		narrative.SettingDungeon: "music_calm_dungeon_rest",
		narrative.SettingCave:    "music_calm_cave_echoes",
		narrative.SettingCastle:  "music_calm_castle_courtyard",
		narrative.SettingVillage: "music_calm_village_morning",
		narrative.SettingNight:   "music_calm_night_lullaby",
		narrative.SettingStorm:   "music_calm_after_the_rain",
		narrative.SettingFantasy: "music_calm_fae_meadow",
		narrative.SettingSpace:   "music_calm_starlight_drift",
	},
	narrative.MoodMysterious: {
		narrative.SettingForest:  "music_mysterious_deepwood",
		narrative.SettingDungeon: "music_mysterious_forgotten_halls",
		narrative.SettingCave:    "music_mysterious_crystal_depths",
		narrative.SettingCastle:  "music_mysterious_hidden_passage",
		narrative.SettingVillage: "music_mysterious_masked_fair",
		narrative.SettingNight:   "music_mysterious_moonshadow",
		narrative.SettingStorm:   "music_mysterious_veiled_sky",
		narrative.SettingFantasy: "music_mysterious_arcane_mist",
		narrative.SettingSpace:   "music_mysterious_silent_nebula",
	},
	narrative.MoodTense: {
		narrative.SettingForest:  "music_tense_thicket_watch",
		narrative.SettingDungeon: "music_tense_lower_levels",
		narrative.SettingCave:    "music_tense_narrow_passage",
		narrative.SettingCastle:  "music_tense_throne_intrigue",
		narrative.SettingVillage: "music_tense_uneasy_streets",
		narrative.SettingNight:   "music_tense_watchful_dark",
		narrative.SettingStorm:   "music_tense_gathering_clouds",
		narrative.SettingFantasy: "music_tense_unstable_magic",
		narrative.SettingSpace:   "music_tense_hull_breach_watch",
	},
	narrative.MoodScary: {
		narrative.SettingForest:  "music_scary_blackwood",
		narrative.SettingDungeon: "music_scary_oubliette",
		narrative.SettingCave:    "music_scary_things_below",
		narrative.SettingCastle:  "music_scary_haunted_keep",
		narrative.SettingVillage: "music_scary_empty_houses",
		narrative.SettingNight:   "music_scary_witching_hour",
		narrative.SettingStorm:   "music_scary_howling_gale",
		narrative.SettingFantasy: "music_scary_cursed_realm",
		narrative.SettingSpace:   "music_scary_derelict_ship",
	},
	narrative.MoodEpic: {
		narrative.SettingForest:  "music_epic_wildheart",
		narrative.SettingDungeon: "music_epic_depths_of_valor",
		narrative.SettingCave:    "music_epic_hollow_mountain",
		narrative.SettingCastle:  "music_epic_banners_high",
		narrative.SettingVillage: "music_epic_rally_the_folk",
		narrative.SettingNight:   "music_epic_midnight_charge",
		narrative.SettingStorm:   "music_epic_stormbreaker",
		narrative.SettingFantasy: "music_epic_dragonfire",
		narrative.SettingSpace:   "music_epic_stellar_armada",
	},
	narrative.MoodCozy: {
		narrative.SettingForest:  "music_cozy_mossy_hollow",
		narrative.SettingDungeon: "music_cozy_campfire_below",
		narrative.SettingCave:    "music_cozy_lantern_nook",
		narrative.SettingCastle:  "music_cozy_great_hall_hearth",
		narrative.SettingVillage: "music_cozy_tavern_evening",
		narrative.SettingNight:   "music_cozy_candlelight",
		narrative.SettingStorm:   "music_cozy_rain_on_windows",
		narrative.SettingFantasy: "music_cozy_gnome_kitchen",
		narrative.SettingSpace:   "music_cozy_cabin_orbit",
	},
	narrative.MoodSad: {
		narrative.SettingForest:  "music_sad_fallen_leaves",
		narrative.SettingDungeon: "music_sad_chains_and_dust",
		narrative.SettingCave:    "music_sad_dripping_dark",
		narrative.SettingCastle:  "music_sad_empty_throne",
		narrative.SettingVillage: "music_sad_abandoned_square",
		narrative.SettingNight:   "music_sad_cold_stars",
		narrative.SettingStorm:   "music_sad_grey_horizon",
		narrative.SettingFantasy: "music_sad_faded_glory",
		narrative.SettingSpace:   "music_sad_lost_signal",
	},
	narrative.MoodWhimsical: {
		narrative.SettingForest:  "music_whimsical_pixie_parade",
		narrative.SettingDungeon: "music_whimsical_goblin_market",
		narrative.SettingCave:    "music_whimsical_mushroom_dance",
		narrative.SettingCastle:  "music_whimsical_jester_waltz",
		narrative.SettingVillage: "music_whimsical_festival_day",
		narrative.SettingNight:   "music_whimsical_firefly_waltz",
		narrative.SettingStorm:   "music_whimsical_puddle_jumping",
		narrative.SettingFantasy: "music_whimsical_wizard_workshop",
		narrative.SettingSpace:   "music_whimsical_comet_chase",
	},
}

// ambienceTable maps (setting, intensity bucket) to a looping ambience bed.
var ambienceTable = map[narrative.Setting]map[narrative.IntensityBucket]string{
	narrative.SettingForest: {
		narrative.BucketLow:  "amb_forest_birdsong",
		narrative.BucketMid:  "amb_forest_rustling",
		narrative.BucketHigh: "amb_forest_wind_roar",
	},
	narrative.SettingDungeon: {
		narrative.BucketLow:  "amb_dungeon_drips",
		narrative.BucketMid:  "amb_dungeon_distant_clanks",
		narrative.BucketHigh: "amb_dungeon_rumbling",
	},
	narrative.SettingCave: {
		narrative.BucketLow:  "amb_cave_still_air",
		narrative.BucketMid:  "amb_cave_water_echoes",
		narrative.BucketHigh: "amb_cave_collapsing",
	},
	narrative.SettingCastle: {
		narrative.BucketLow:  "amb_castle_quiet_halls",
		narrative.BucketMid:  "amb_castle_busy_court",
		narrative.BucketHigh: "amb_castle_siege_walls",
	},
	narrative.SettingVillage: {
		narrative.BucketLow:  "amb_village_quiet_lanes",
		narrative.BucketMid:  "amb_village_market_chatter",
		narrative.BucketHigh: "amb_village_alarm_bells",
	},
	narrative.SettingNight: {
		narrative.BucketLow:  "amb_night_crickets",
		narrative.BucketMid:  "amb_night_owls_and_wind",
		narrative.BucketHigh: "amb_night_wolves_howling",
	},
	narrative.SettingStorm: {
		narrative.BucketLow:  "amb_storm_far_thunder",
		narrative.BucketMid:  "amb_storm_steady_rain",
		narrative.BucketHigh: "amb_storm_full_tempest",
	},
	narrative.SettingFantasy: {
		narrative.BucketLow:  "amb_fantasy_gentle_shimmer",
		narrative.BucketMid:  "amb_fantasy_humming_wards",
		narrative.BucketHigh: "amb_fantasy_wild_surge",
	},
	narrative.SettingSpace: {
		narrative.BucketLow:  "amb_space_hull_hum",
		narrative.BucketMid:  "amb_space_console_chatter",
		narrative.BucketHigh: "amb_space_klaxon_drone",
	},
}

// sfxTable maps (event, intensity bucket) to an ordered set of one-shot
// effects triggered together.
var sfxTable = map[narrative.Event]map[narrative.IntensityBucket][]string{
	narrative.EventExploration: {
		narrative.BucketLow:  {"sfx_soft_footsteps", "sfx_cloth_rustle", "sfx_gentle_breeze"},
		narrative.BucketMid:  {"sfx_gravel_steps", "sfx_map_unfold", "sfx_door_creak"},
		narrative.BucketHigh: {"sfx_running_steps", "sfx_heavy_breathing", "sfx_branch_snap"},
	},
	narrative.EventDanger: {
		narrative.BucketLow:  {"sfx_distant_growl", "sfx_twig_crack", "sfx_low_drone"},
		narrative.BucketMid:  {"sfx_close_growl", "sfx_blade_unsheathe", "sfx_heartbeat"},
		narrative.BucketHigh: {"sfx_monster_roar", "sfx_crashing_debris", "sfx_alarm_horn"},
	},
	narrative.EventBattle: {
		narrative.BucketLow:  {"sfx_sword_ring", "sfx_shield_thud", "sfx_war_drum_single"},
		narrative.BucketMid:  {"sfx_clashing_steel", "sfx_battle_shouts", "sfx_arrow_volley"},
		narrative.BucketHigh: {"sfx_full_melee", "sfx_dragon_roar", "sfx_explosion_burst"},
	},
	narrative.EventMagic: {
		narrative.BucketLow:  {"sfx_soft_sparkle", "sfx_page_turn", "sfx_candle_whoosh"},
		narrative.BucketMid:  {"sfx_spell_cast", "sfx_arcane_hum", "sfx_energy_pulse"},
		narrative.BucketHigh: {"sfx_thunderclap_spell", "sfx_portal_tear", "sfx_power_surge"},
	},
	narrative.EventDiscovery: {
		narrative.BucketLow:  {"sfx_quiet_gasp", "sfx_latch_click", "sfx_soft_chime"},
		narrative.BucketMid:  {"sfx_chest_open", "sfx_coin_spill", "sfx_revelation_swell"},
		narrative.BucketHigh: {"sfx_grand_reveal", "sfx_choir_hit", "sfx_stone_door_grind"},
	},
	narrative.EventResolution: {
		narrative.BucketLow:  {"sfx_long_exhale", "sfx_fire_crackle", "sfx_night_settle"},
		narrative.BucketMid:  {"sfx_warm_strings", "sfx_crowd_cheer_far", "sfx_bell_toll"},
		narrative.BucketHigh: {"sfx_victory_fanfare", "sfx_crowd_roar", "sfx_fireworks"},
	},
}
