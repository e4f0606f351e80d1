package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Aggregations over the submission log. Each projection is recomputed from
// the log on every call; nothing is cached between calls.

// progressPipeline yields one {_id: answeree} row per distinct answeree of
// an exercise, ordered by first submission.
func progressPipeline(sessionID, exerciseID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "session", Value: sessionID},
			{Key: "exercise", Value: exerciseID},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$answeree"},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$submitDate"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "first", Value: 1}, {Key: "_id", Value: 1}}}},
	}
}

// presenterPipeline yields {uid, submissions} per exercise of a session,
// where submissions holds each answeree once.
func presenterPipeline(sessionID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "session", Value: sessionID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "exercise", Value: "$exercise"},
				{Key: "answeree", Value: "$answeree"},
			}},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$submitDate"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "first", Value: 1}, {Key: "_id.answeree", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id.exercise"},
			{Key: "submissions", Value: bson.D{{Key: "$push", Value: "$_id.answeree"}}},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$first"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "first", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "uid", Value: "$_id"},
			{Key: "submissions", Value: 1},
		}}},
	}
}

// viewerPipeline yields {uid, submissionNum, confidence} per exercise one
// answeree submitted to. confidence is taken from the latest submission.
func viewerPipeline(sessionID, answereeID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "session", Value: sessionID},
			{Key: "answeree", Value: answereeID},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "submitDate", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$exercise"},
			{Key: "submissionNum", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "confidence", Value: bson.D{{Key: "$first", Value: "$confidence"}}},
			{Key: "first", Value: bson.D{{Key: "$min", Value: "$submitDate"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "first", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "uid", Value: "$_id"},
			{Key: "submissionNum", Value: 1},
			{Key: "confidence", Value: 1},
		}}},
	}
}
