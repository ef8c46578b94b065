package store

const (
	saveEventQuery = `
		MERGE (n:Event {uuid: $uuid})
		SET n.name = $name,
			n.event_type = $event_type,
			n.content = $content,
			n.embedding = $embedding,
			n.start_time = $start_time,
			n.created_at = $created_at,
			n.updated_at = $updated_at,
			n.last_accessed_at = $last_accessed_at,
			n.cluster_id = $cluster_id
		RETURN n.uuid AS uuid
	`

	updateEventClusterQuery = `
		MATCH (n:Event {uuid: $uuid})
		SET n.cluster_id = $cluster_id
		RETURN n.uuid AS uuid
	`

	listEventsQuery = `
		MATCH (n:Event)
		RETURN n.uuid AS uuid, n.name AS name, n.event_type AS event_type,
			n.content AS content, n.embedding AS embedding,
			n.start_time AS start_time, n.created_at AS created_at,
			n.updated_at AS updated_at, n.last_accessed_at AS last_accessed_at,
			n.cluster_id AS cluster_id
		ORDER BY n.created_at
	`

	listEventsByClusterQuery = `
		MATCH (n:Event {cluster_id: $cluster_id})
		RETURN n.uuid AS uuid, n.name AS name, n.event_type AS event_type,
			n.content AS content, n.embedding AS embedding,
			n.start_time AS start_time, n.created_at AS created_at,
			n.updated_at AS updated_at, n.last_accessed_at AS last_accessed_at,
			n.cluster_id AS cluster_id
		ORDER BY n.created_at
	`

	listUnclusteredEventsQuery = `
		MATCH (n:Event)
		WHERE n.cluster_id IS NULL OR n.cluster_id = ""
		RETURN n.uuid AS uuid, n.name AS name, n.event_type AS event_type,
			n.content AS content, n.embedding AS embedding,
			n.start_time AS start_time, n.created_at AS created_at,
			n.updated_at AS updated_at, n.last_accessed_at AS last_accessed_at,
			n.cluster_id AS cluster_id
		ORDER BY n.created_at
	`

	saveClusterQuery = `
		MERGE (c:Cluster {uuid: $uuid})
		SET c.name = $name,
			c.node_type = $node_type,
			c.description = $description,
			c.centroid = $centroid,
			c.member_count = $member_count,
			c.avg_similarity = $avg_similarity,
			c.earliest_event = $earliest_event,
			c.latest_event = $latest_event,
			c.member_uuids = $member_uuids,
			c.created_at = $created_at
		RETURN c.uuid AS uuid
	`

	listClustersQuery = `
		MATCH (c:Cluster)
		RETURN c.uuid AS uuid, c.name AS name, c.node_type AS node_type,
			c.description AS description, c.centroid AS centroid,
			c.member_count AS member_count, c.avg_similarity AS avg_similarity,
			c.earliest_event AS earliest_event, c.latest_event AS latest_event,
			c.member_uuids AS member_uuids, c.created_at AS created_at
		ORDER BY c.created_at DESC
	`

	deleteEmptyClustersQuery = `
		MATCH (c:Cluster)
		WHERE NOT EXISTS {
			MATCH (e:Event)
			WHERE e.cluster_id = c.uuid
		}
		DETACH DELETE c
		RETURN count(c) AS deleted
	`

	saveRunRecordQuery = `
		CREATE (r:ClusteringRun {
			uuid: $uuid,
			run_at: $run_at,
			candidate_count: $candidate_count,
			clusters_created: $clusters_created,
			events_clustered: $events_clustered,
			events_unclustered: $events_unclustered,
			algorithm: $algorithm,
			avg_cluster_size: $avg_cluster_size,
			avg_similarity: $avg_similarity,
			threshold: $threshold,
			window_days: $window_days,
			min_size: $min_size,
			max_size: $max_size
		})
		RETURN r.uuid AS uuid
	`

	listRunRecordsQuery = `
		MATCH (r:ClusteringRun)
		RETURN r.uuid AS uuid, r.run_at AS run_at,
			r.candidate_count AS candidate_count,
			r.clusters_created AS clusters_created,
			r.events_clustered AS events_clustered,
			r.events_unclustered AS events_unclustered,
			r.algorithm AS algorithm,
			r.avg_cluster_size AS avg_cluster_size,
			r.avg_similarity AS avg_similarity,
			r.threshold AS threshold, r.window_days AS window_days,
			r.min_size AS min_size, r.max_size AS max_size
		ORDER BY r.run_at DESC
		LIMIT $limit
	`
)

var buildIndexQueries = []string{
	"CREATE INDEX ON :Event(uuid);",
	"CREATE INDEX ON :Event(cluster_id);",
	"CREATE INDEX ON :Cluster(uuid);",
	"CREATE INDEX ON :ClusteringRun(uuid);",
}
